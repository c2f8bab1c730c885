package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"bloop/internal/pkg/config"
	"bloop/internal/usecase/cycle"
)

// Cycle outcome labels of bloop_cycle_runs_total.
const (
	StatusSuccess  = "success"
	StatusFailure  = "failure"
	StatusPanicked = "panicked"
)

// WorkerMetrics holds the Prometheus metrics of the bot process. It embeds the
// configuration metrics and implements cycle.Observer and scheduler.PollObserver.
//
//   - bloop_config_*: configuration load and fallbacks
//   - bloop_cycle_runs_total{status}
//   - bloop_cycle_stage_failures_total{stage}
//   - bloop_cycle_duration_seconds
//   - bloop_cycle_last_success_timestamp
//   - bloop_scheduler_polls_total, bloop_scheduler_poll_failures_total
type WorkerMetrics struct {
	*config.ConfigMetrics

	CycleRunsTotal          *prometheus.CounterVec
	CycleStageFailuresTotal *prometheus.CounterVec
	CycleDurationSeconds    prometheus.Histogram
	CycleLastSuccess        prometheus.Gauge
	PollsTotal              prometheus.Counter
	PollFailuresTotal       prometheus.Counter
}

// NewWorkerMetrics registers the metrics with reg.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	factory := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "bloop"),

		CycleRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloop_cycle_runs_total",
			Help: "Total number of content cycles by outcome (success/failure/panicked)",
		}, []string{"status"}),

		CycleStageFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloop_cycle_stage_failures_total",
			Help: "Total number of content cycles that failed, by failing stage",
		}, []string{"stage"}),

		CycleDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bloop_cycle_duration_seconds",
			Help:    "Duration of a content cycle in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		CycleLastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bloop_cycle_last_success_timestamp",
			Help: "Unix timestamp of the last content cycle that published and announced a post",
		}),

		PollsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloop_scheduler_polls_total",
			Help: "Total number of scheduler polls",
		}),

		PollFailuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloop_scheduler_poll_failures_total",
			Help: "Total number of scheduler polls that failed and triggered the cooldown",
		}),
	}
}

// ObserveCycle records the outcome of one cycle.
func (m *WorkerMetrics) ObserveCycle(report cycle.Report) {
	m.CycleDurationSeconds.Observe(report.Duration.Seconds())

	switch {
	case report.Panicked:
		m.CycleRunsTotal.WithLabelValues(StatusPanicked).Inc()
	case report.Succeeded():
		m.CycleRunsTotal.WithLabelValues(StatusSuccess).Inc()
		m.CycleLastSuccess.SetToCurrentTime()
		return
	default:
		m.CycleRunsTotal.WithLabelValues(StatusFailure).Inc()
	}

	stage := report.FailedAt
	if stage == "" {
		stage = report.Reached
	}
	m.CycleStageFailuresTotal.WithLabelValues(stage.String()).Inc()
}

// ObservePoll records one scheduler poll.
func (m *WorkerMetrics) ObservePoll(err error) {
	m.PollsTotal.Inc()
	if err != nil {
		m.PollFailuresTotal.Inc()
	}
}
