package generator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRecorder records generation metrics. Tests inject a fake.
type MetricsRecorder interface {
	// RecordLength records the length of a generated post in characters.
	RecordLength(provider string, length int)

	// RecordDuration records the time taken by one API call.
	RecordDuration(provider string, duration time.Duration)

	// RecordFailure counts a failed generation.
	RecordFailure(provider string)
}

// PrometheusMetrics implements MetricsRecorder using Prometheus.
type PrometheusMetrics struct {
	lengthHistogram   *prometheus.HistogramVec
	durationHistogram *prometheus.HistogramVec
	failureCounter    *prometheus.CounterVec
}

// NewPrometheusMetrics registers the generation metrics with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		lengthHistogram: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloop_generated_post_length_characters",
			Help:    "Distribution of generated post lengths in characters (Unicode runes)",
			Buckets: []float64{500, 1000, 2000, 3000, 4000, 6000, 8000},
		}, []string{"provider"}),
		durationHistogram: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloop_generation_duration_seconds",
			Help:    "Time taken to generate a post via the language-model API",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"provider"}),
		failureCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloop_generation_failures_total",
			Help: "Total number of failed post generations",
		}, []string{"provider"}),
	}
}

func (p *PrometheusMetrics) RecordLength(provider string, length int) {
	p.lengthHistogram.WithLabelValues(provider).Observe(float64(length))
}

func (p *PrometheusMetrics) RecordDuration(provider string, duration time.Duration) {
	p.durationHistogram.WithLabelValues(provider).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) RecordFailure(provider string) {
	p.failureCounter.WithLabelValues(provider).Inc()
}

type noopMetrics struct{}

func (noopMetrics) RecordLength(string, int)              {}
func (noopMetrics) RecordDuration(string, time.Duration) {}
func (noopMetrics) RecordFailure(string)                  {}
