package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for capability invocations.
type Metrics struct {
	Invocations *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

// New registers the capability metrics with reg. A nil reg creates collectors
// that are never registered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Invocations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certgate_capability_invocations_total",
			Help: "Total capability invocations by operation and outcome",
		}, []string{"operation", "outcome"}), // outcome: success, missing_parameter, execution_failure, not_found

		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certgate_capability_duration_seconds",
			Help:    "Duration of capability invocations by operation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
	}
}

// IncrementInvocation records one invocation outcome.
func (m *Metrics) IncrementInvocation(operation, outcome string) {
	if m != nil {
		m.Invocations.WithLabelValues(operation, outcome).Inc()
	}
}

// ObserveDuration records how long an invocation took.
func (m *Metrics) ObserveDuration(operation string, d time.Duration) {
	if m != nil {
		m.Duration.WithLabelValues(operation).Observe(d.Seconds())
	}
}
