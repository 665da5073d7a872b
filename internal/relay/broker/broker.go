package broker

import "context"

// Record is one entry read from the shared topic.
type Record struct {
	Key     string
	Payload []byte
}

// Broker is the durable pub/sub log every relay instance publishes to and
// consumes from. A subscription only sees records that arrive after Subscribe
// (latest offset, no history replay), and each relay instance subscribes under
// its own identity so all instances receive the full stream.
type Broker interface {
	// Publish appends one record to the topic. key is an arbitrary partition
	// key; backends without partitions may ignore it.
	Publish(ctx context.Context, topic, key string, payload []byte) error
	// Subscribe starts consuming the topic from now. The channel closes when
	// ctx is done.
	Subscribe(ctx context.Context, topic string) (<-chan Record, error)
	Close() error
}
