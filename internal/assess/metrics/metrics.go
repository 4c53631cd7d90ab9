// Package metrics holds the Prometheus instrumentation for assessments.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all assessment metrics.
type Metrics struct {
	Assessments       *prometheus.CounterVec
	LinkageConfidence prometheus.Histogram
	StageLatency      *prometheus.HistogramVec
}

// New creates and registers the assessment metrics on the default
// registry.
func New() *Metrics {
	return &Metrics{
		Assessments: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "eligo_assessments_total",
			Help: "Total assessments by final decision.",
		}, []string{"decision"}),
		LinkageConfidence: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "eligo_linkage_confidence",
			Help:    "Distribution of linkage composite confidence scores.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eligo_assessment_stage_seconds",
			Help:    "Latency per assessment stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
}

// ObserveDecision counts one completed assessment.
func (m *Metrics) ObserveDecision(decision string) {
	m.Assessments.WithLabelValues(decision).Inc()
}

// ObserveLinkageConfidence records a composite confidence score.
func (m *Metrics) ObserveLinkageConfidence(confidence float64) {
	m.LinkageConfidence.Observe(confidence)
}

// ObserveStageLatency records how long one assessment stage took.
func (m *Metrics) ObserveStageLatency(stage string, d time.Duration) {
	m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
}
