// Package metrics instruments the bot's outbound HTTP calls with Prometheus
// metrics, labelled by collaborator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OutboundMetrics counts and times requests to external APIs.
//
//   - bloop_outbound_requests_total{collaborator,code,method}
//   - bloop_outbound_request_duration_seconds{collaborator,code,method}
//   - bloop_outbound_requests_in_flight{collaborator}
type OutboundMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlight        *prometheus.GaugeVec
}

// NewOutboundMetrics registers the metrics with reg.
func NewOutboundMetrics(reg prometheus.Registerer) *OutboundMetrics {
	factory := promauto.With(reg)
	return &OutboundMetrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloop_outbound_requests_total",
			Help: "Total number of requests to external APIs",
		}, []string{"collaborator", "code", "method"}),

		// LLM calls take tens of seconds; the upper buckets cover them.
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloop_outbound_request_duration_seconds",
			Help:    "Duration of requests to external APIs in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"collaborator", "code", "method"}),

		InFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bloop_outbound_requests_in_flight",
			Help: "Number of requests to external APIs currently in flight",
		}, []string{"collaborator"}),
	}
}

// Transport wraps next (http.DefaultTransport when nil) so every request it
// carries is recorded under collaborator.
func (m *OutboundMetrics) Transport(collaborator string, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	labels := prometheus.Labels{"collaborator": collaborator}

	return promhttp.InstrumentRoundTripperInFlight(m.InFlight.With(labels),
		promhttp.InstrumentRoundTripperCounter(m.RequestsTotal.MustCurryWith(labels),
			promhttp.InstrumentRoundTripperDuration(m.RequestDuration.MustCurryWith(labels), next),
		),
	)
}
