package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/florianilch/prompt-relay/internal/relay"
)

// Metrics records relay outcomes and upstream latency as Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	upstream *prometheus.HistogramVec
}

// Compile-time check that Metrics implements relay.Observer
var _ relay.Observer = (*Metrics)(nil)

// NewMetrics creates collectors on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prompt_relay_requests_total",
				Help: "Relay requests by outcome.",
			},
			[]string{"outcome"},
		),
		upstream: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prompt_relay_upstream_request_duration_seconds",
				Help:    "Duration of generateContent calls by upstream status (0 when no response was received).",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
			},
			[]string{"status"},
		),
	}

	m.registry.MustRegister(m.requests, m.upstream)
	return m
}

// ObserveOutcome counts a finished request.
func (m *Metrics) ObserveOutcome(outcome relay.Outcome) {
	m.requests.WithLabelValues(string(outcome)).Inc()
}

// ObserveUpstream records the duration of one upstream call.
func (m *Metrics) ObserveUpstream(status int, elapsed time.Duration) {
	m.upstream.WithLabelValues(strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
