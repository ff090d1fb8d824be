package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's instrumentation.
type Metrics struct {
	TranslationsTotal *prometheus.CounterVec
	GatewayDuration   prometheus.Histogram
	TasksEnqueued     prometheus.Counter
}

// Translation outcome labels.
const (
	OutcomeCompleted      = "completed"
	OutcomeFailed         = "failed"
	OutcomeSkippedEmpty   = "skipped_empty"
	OutcomeSkippedCurrent = "skipped_current"
)

// New registers the pipeline metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TranslationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "translate_pipeline_translations_total",
			Help: "Pipeline passes by outcome.",
		}, []string{"outcome"}),
		GatewayDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "translate_pipeline_gateway_duration_seconds",
			Help:    "Duration of translation provider calls.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		TasksEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "translate_pipeline_tasks_enqueued_total",
			Help: "Per-locale tasks handed to the transport.",
		}),
	}
}

// RecordOutcome increments the outcome counter. Nil-safe so instrumentation
// stays optional.
func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.TranslationsTotal.WithLabelValues(outcome).Inc()
}

// RecordGatewayDuration observes one provider call duration in milliseconds.
func (m *Metrics) RecordGatewayDuration(durationMs int64) {
	if m == nil {
		return
	}
	m.GatewayDuration.Observe(float64(durationMs) / 1000)
}

// RecordEnqueued counts tasks handed to the transport.
func (m *Metrics) RecordEnqueued(n int) {
	if m == nil {
		return
	}
	m.TasksEnqueued.Add(float64(n))
}
