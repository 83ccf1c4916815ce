package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"hostsync/internal/updater"
)

// Metrics holds the Prometheus instruments exported by the status server.
type Metrics struct {
	cyclesTotal         *prometheus.CounterVec
	lastSuccessTime     prometheus.Gauge
	lastCycleBytes      prometheus.Gauge
	sourceFailuresTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers the instruments on a private registry so
// the /metrics endpoint only exposes hostsync series.
func NewMetrics() *Metrics {
	m := &Metrics{
		cyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hostsync_cycles_total",
			Help: "Update cycles by terminal status.",
		}, []string{"status"}),
		lastSuccessTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hostsync_last_success_timestamp_seconds",
			Help: "Unix time of the last successful hosts file update.",
		}),
		lastCycleBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hostsync_last_cycle_bytes_written",
			Help: "Bytes written to the hosts file by the last successful cycle.",
		}),
		sourceFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hostsync_source_fetch_failures_total",
			Help: "Fetch failures by source URL.",
		}, []string{"source"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m.cyclesTotal, m.lastSuccessTime, m.lastCycleBytes, m.sourceFailuresTotal)
	return m
}

// Observe updates the instruments from a cycle outcome.
func (m *Metrics) Observe(outcome updater.Outcome) {
	m.cyclesTotal.WithLabelValues(string(outcome.Status)).Inc()

	for _, source := range outcome.FailedSources {
		m.sourceFailuresTotal.WithLabelValues(source).Inc()
	}

	if outcome.Status == updater.StatusUpdated {
		m.lastSuccessTime.Set(float64(outcome.FinishedAt.Unix()))
		m.lastCycleBytes.Set(float64(outcome.BytesWritten))
	}
}
