package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Invocation outcomes used as the "outcome" label.
const (
	OutcomeSuccess     = "success"
	OutcomeClientError = "client_error"
	OutcomeAuthError   = "auth_error"
	OutcomeUpstream    = "upstream_error"
	OutcomeUnexpected  = "unexpected_error"
)

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relay_build_info",
			Help: "Build information for the relay",
		},
		[]string{"date", "sha", "version"},
	)

	invocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_invocations_total",
			Help: "Total number of POST /api/invoke requests by outcome",
		},
		[]string{"outcome"},
	)

	invokeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_invoke_duration_seconds",
			Help:    "Duration of POST /api/invoke requests, including the model call",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"outcome"},
	)

	upstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_upstream_errors_total",
			Help: "Failed model calls by provider error code",
		},
		[]string{"code"},
	)

	outputTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_output_tokens_total",
			Help: "Tokens generated by the model across all invocations",
		},
	)

	inflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_invocations_inflight",
			Help: "Number of invocations currently being handled",
		},
	)
)

// Register registers the relay collectors with r.
func Register(r prometheus.Registerer) {
	r.MustRegister(buildInfo, invocations, invokeDuration, upstreamErrors, outputTokens, inflight)
}

// SetBuildInfo sets the build info metric.
func SetBuildInfo(version, sha, date string) {
	buildInfo.WithLabelValues(date, sha, version).Set(1)
}

// InvocationStart marks an invocation as in flight.
func InvocationStart() { inflight.Inc() }

// InvocationEnd records the outcome and duration of an invocation started
// with InvocationStart.
func InvocationEnd(outcome string, d time.Duration) {
	inflight.Dec()
	invocations.WithLabelValues(outcome).Inc()
	invokeDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordUpstreamError counts a failed model call. An empty code is recorded
// as "unknown".
func RecordUpstreamError(code string) {
	if code == "" {
		code = "unknown"
	}
	upstreamErrors.WithLabelValues(code).Inc()
}

// RecordOutputTokens adds n generated tokens.
func RecordOutputTokens(n int) {
	if n > 0 {
		outputTokens.Add(float64(n))
	}
}
