package usage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for gate decisions. A nil *Metrics is a no-op.
type Metrics struct {
	checks          *prometheus.CounterVec
	records         *prometheus.CounterVec
	resolveDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
// Panics if they are already registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "voicedesk",
				Subsystem: "usage",
				Name:      "checks_total",
				Help:      "Usage limit checks by category and outcome",
			},
			[]string{"category", "outcome"},
		),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "voicedesk",
				Subsystem: "usage",
				Name:      "records_total",
				Help:      "Usage counter mutations by category and result",
			},
			[]string{"category", "result"},
		),
		resolveDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "voicedesk",
				Subsystem: "usage",
				Name:      "resolve_duration_seconds",
				Help:      "Time spent building subscription snapshots",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.checks, m.records, m.resolveDuration)
	return m
}

func (m *Metrics) check(category, outcome string) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(category, outcome).Inc()
}

func (m *Metrics) record(category, result string) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(category, result).Inc()
}

func (m *Metrics) observeResolve(started time.Time) {
	if m == nil {
		return
	}
	m.resolveDuration.Observe(time.Since(started).Seconds())
}
