package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audit trail.
type Metrics struct {
	RecordsAppended prometheus.Counter
	AppendFailures  prometheus.Counter
	AppendLatency   prometheus.Histogram
}

// New registers the audit metrics with reg. A nil reg leaves them
// unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsAppended: factory.NewCounter(prometheus.CounterOpts{
			Name: "certgate_audit_records_appended_total",
			Help: "Total audit records successfully appended",
		}),
		AppendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "certgate_audit_append_failures_total",
			Help: "Total audit appends that failed at the storage layer",
		}),
		AppendLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "certgate_audit_append_duration_seconds",
			Help:    "Duration of audit appends including storage I/O",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}),
	}
}

// IncrementAppended records a successful append.
func (m *Metrics) IncrementAppended() {
	if m != nil {
		m.RecordsAppended.Inc()
	}
}

// IncrementAppendFailures records a failed append.
func (m *Metrics) IncrementAppendFailures() {
	if m != nil {
		m.AppendFailures.Inc()
	}
}

// ObserveAppendLatency records append duration.
func (m *Metrics) ObserveAppendLatency(d time.Duration) {
	if m != nil {
		m.AppendLatency.Observe(d.Seconds())
	}
}
