package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the issuance orchestrator.
type Metrics struct {
	// Terminal outcomes by operation kind and state
	Outcomes *prometheus.CounterVec

	// End-to-end processing latency including the audit append
	Duration prometheus.Histogram
}

// New registers the issuance metrics with reg. A nil reg leaves them
// unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certgate_issuance_outcomes_total",
			Help: "Total issuance requests by operation kind and terminal state",
		}, []string{"kind", "state"}),

		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "certgate_issuance_duration_seconds",
			Help:    "Duration of issuance request processing",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncrementOutcome records a terminal state.
func (m *Metrics) IncrementOutcome(kind, state string) {
	if m != nil {
		m.Outcomes.WithLabelValues(kind, state).Inc()
	}
}

// ObserveDuration records processing latency.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m != nil {
		m.Duration.Observe(d.Seconds())
	}
}
