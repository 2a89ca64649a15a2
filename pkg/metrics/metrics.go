// Package metrics exposes bridge link metrics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromMetrics implements the teleop.Metrics interface using Prometheus.
type PromMetrics struct {
	connections       prometheus.Counter
	disconnects       prometheus.Counter
	connectFailures   prometheus.Counter
	commandsPublished prometheus.Counter
	commandsDropped   prometheus.Counter
	connStatus        prometheus.Gauge
}

// NewMetrics creates and registers the station metrics.
// If registry is nil, it uses the global default registry.
func NewMetrics(registry prometheus.Registerer, stationLabels map[string]string) *PromMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	m := &PromMetrics{
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "station",
			Name:        "bridge_connections_total",
			Help:        "Total number of successful rosbridge connections established.",
			ConstLabels: stationLabels,
		}),
		disconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "station",
			Name:        "bridge_disconnects_total",
			Help:        "Total number of rosbridge disconnects, requested or not.",
			ConstLabels: stationLabels,
		}),
		connectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "station",
			Name:        "bridge_connect_failures_total",
			Help:        "Total number of failed connect attempts.",
			ConstLabels: stationLabels,
		}),
		commandsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "station",
			Name:        "drive_commands_published_total",
			Help:        "Total number of Twist commands handed to the bridge.",
			ConstLabels: stationLabels,
		}),
		commandsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "station",
			Name:        "drive_commands_dropped_total",
			Help:        "Total number of Twist commands the transport refused.",
			ConstLabels: stationLabels,
		}),
		connStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "station",
			Name:        "bridge_connection_status",
			Help:        "Current status of the bridge connection (1 = connected, 0 = disconnected).",
			ConstLabels: stationLabels,
		}),
	}

	registry.MustRegister(m.connections)
	registry.MustRegister(m.disconnects)
	registry.MustRegister(m.connectFailures)
	registry.MustRegister(m.commandsPublished)
	registry.MustRegister(m.commandsDropped)
	registry.MustRegister(m.connStatus)

	return m
}

func (m *PromMetrics) IncConnections() {
	m.connections.Inc()
}

func (m *PromMetrics) IncDisconnects() {
	m.disconnects.Inc()
}

func (m *PromMetrics) IncConnectFailures() {
	m.connectFailures.Inc()
}

func (m *PromMetrics) IncCommandsPublished() {
	m.commandsPublished.Inc()
}

func (m *PromMetrics) IncCommandsDropped() {
	m.commandsDropped.Inc()
}

func (m *PromMetrics) SetConnectionStatus(status float64) {
	m.connStatus.Set(status)
}
