package hub

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles Prometheus collectors for the event hub.
type Metrics struct {
	registry         *prometheus.Registry
	connectedClients prometheus.Gauge
	envelopesRelayed prometheus.Counter
	envelopesDropped prometheus.Counter
	slowClientDrops  prometheus.Counter
	broadcastsTotal  prometheus.Counter
}

func newMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		connectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reelo",
			Name:      "hub_connected_clients",
			Help:      "Current connected WebSocket clients",
		}),
		envelopesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reelo",
			Name:      "hub_envelopes_relayed_total",
			Help:      "Envelopes accepted from clients and fanned out",
		}),
		envelopesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reelo",
			Name:      "hub_envelopes_dropped_total",
			Help:      "Inbound messages dropped as malformed or unrecognized",
		}),
		slowClientDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reelo",
			Name:      "hub_slow_client_drops_total",
			Help:      "Clients disconnected because their send buffer was full",
		}),
		broadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reelo",
			Name:      "hub_broadcasts_total",
			Help:      "Server-originated envelopes broadcast to all clients",
		}),
	}

	registry.MustRegister(
		m.connectedClients,
		m.envelopesRelayed,
		m.envelopesDropped,
		m.slowClientDrops,
		m.broadcastsTotal,
	)

	return m
}

// Handler returns an HTTP handler exposing the hub metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
