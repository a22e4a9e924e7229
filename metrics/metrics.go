package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "piano_relay"

// Reasons a connection is terminated by the relay.
const (
	ReasonValidation = "validation"
	ReasonCapacity   = "capacity"
	ReasonRateLimit  = "rate_limit"
	ReasonSend       = "send"
)

type Metrics struct {
	Sessions      prometheus.Gauge
	Rooms         prometheus.Gauge
	Events        *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
	SlowConsumers prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers the relay collectors on reg. Pass prometheus.NewRegistry()
// to keep instances independent.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently admitted to a room.",
		}),
		Rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Rooms with at least one session.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relayed_events_total",
			Help:      "Validated events relayed to a room, by kind.",
		}, []string{"kind"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "terminated_connections_total",
			Help:      "Connections terminated by the relay, by reason.",
		}, []string{"reason"}),
		SlowConsumers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slow_consumers_total",
			Help:      "Peers closed because their outbound queue overflowed.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.Sessions, m.Rooms, m.Events, m.Rejections, m.SlowConsumers)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
