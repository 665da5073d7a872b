package config

// 总配置
type RelayConfig struct {
	Name   string       `mapstructure:"name" json:"name" yaml:"name"`
	HTTP   HTTPConfig   `mapstructure:"http" json:"http" yaml:"http"`
	Broker BrokerConfig `mapstructure:"broker" json:"broker" yaml:"broker"`
	Hub    HubConfig    `mapstructure:"hub" json:"hub" yaml:"hub"`
	Ledger LedgerConfig `mapstructure:"ledger" json:"ledger" yaml:"ledger"`
	Relay  RelaySection `mapstructure:"relay" json:"relay" yaml:"relay"`
	Log    LogConfig    `mapstructure:"log" json:"log" yaml:"log"`
}

// HTTP 配置
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type BrokerConfig struct {
	URL   string `mapstructure:"url" yaml:"url"`
	Topic string `mapstructure:"topic" yaml:"topic"`
	Key   string `mapstructure:"key" yaml:"key"`
}

type HubConfig struct {
	Backlog int `mapstructure:"backlog" yaml:"backlog"`
}

type LedgerConfig struct {
	MaxEntries int `mapstructure:"max_entries" yaml:"max_entries"`
	TTLSeconds int `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
}

type RelaySection struct {
	// 发布失败时是否还要本地回显（默认 false = fire-and-forget）
	EchoRequiresPublish bool `mapstructure:"echo_requires_publish" yaml:"echo_requires_publish"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Default mirrors the topology every client of the system assumes: one shared
// topic, ws endpoint on 3001.
func Default() RelayConfig {
	return RelayConfig{
		Name: "relay-service",
		HTTP: HTTPConfig{Addr: ":3001"},
		Broker: BrokerConfig{
			URL:   "nats://127.0.0.1:4222",
			Topic: "chat-room",
			Key:   "chat",
		},
		Hub:    HubConfig{Backlog: 100},
		Ledger: LedgerConfig{MaxEntries: 1 << 16, TTLSeconds: 600},
		Log:    LogConfig{Level: "info"},
	}
}
