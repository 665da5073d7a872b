package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	MessagesRelayed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatrelay",
			Name:      "messages_relayed_total",
			Help:      "Client frames accepted, enriched and fanned out.",
		},
	)

	DuplicatesDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatrelay",
			Name:      "duplicates_dropped_total",
			Help:      "Broker records dropped because their id was already seen locally.",
		},
	)

	RecordsBridged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatrelay",
			Name:      "records_bridged_total",
			Help:      "Novel broker records forwarded to the local hub.",
		},
	)

	MalformedDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatrelay",
			Name:      "malformed_dropped_total",
			Help:      "Payloads dropped because they did not decode to an object with an id.",
		},
		[]string{"source"}, // source: client/broker
	)

	PublishErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatrelay",
			Name:      "publish_errors_total",
			Help:      "Broker publish failures (fire-and-forget, no retry).",
		},
	)

	BacklogEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatrelay",
			Name:      "backlog_evictions_total",
			Help:      "Oldest buffered payloads evicted from a slow subscriber backlog.",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chatrelay",
			Name:      "active_sessions",
			Help:      "Currently connected websocket sessions.",
		},
	)
)

func MustRegister() {
	prometheus.MustRegister(
		MessagesRelayed,
		DuplicatesDropped,
		RecordsBridged,
		MalformedDropped,
		PublishErrors,
		BacklogEvictions,
		ActiveSessions,
	)
}
