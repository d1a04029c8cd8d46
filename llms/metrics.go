package llms

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks model traffic produced by LLM nodes.
//
// Metrics:
//   - lmnodes_llm_requests_total: request attempts by node, model and status
//   - lmnodes_llm_request_duration_seconds: attempt latency
//   - lmnodes_llm_tokens_total: tokens by node, model and type (prompt, completion)
//   - lmnodes_llm_failed_attempts_total: failed attempts by node and status code
type Metrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	tokens         *prometheus.CounterVec
	failedAttempts *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lmnodes",
				Subsystem: "llm",
				Name:      "requests_total",
				Help:      "Total number of model request attempts",
			},
			[]string{"node", "model", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "lmnodes",
				Subsystem: "llm",
				Name:      "request_duration_seconds",
				Help:      "Model request attempt latency in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"node", "model"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lmnodes",
				Subsystem: "llm",
				Name:      "tokens_total",
				Help:      "Total number of tokens reported by the model",
			},
			[]string{"node", "model", "type"},
		),
		failedAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lmnodes",
				Subsystem: "llm",
				Name:      "failed_attempts_total",
				Help:      "Total number of failed model request attempts",
			},
			[]string{"node", "status"},
		),
	}
	reg.MustRegister(m.requests, m.duration, m.tokens, m.failedAttempts)
	return m
}

// RecordRequest records one completed attempt.
func (m *Metrics) RecordRequest(nodeName, model, status string, latency time.Duration, usage TokenUsage) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(nodeName, model, status).Inc()
	m.duration.WithLabelValues(nodeName, model).Observe(latency.Seconds())
	if usage.PromptTokens > 0 {
		m.tokens.WithLabelValues(nodeName, model, "prompt").Add(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		m.tokens.WithLabelValues(nodeName, model, "completion").Add(float64(usage.CompletionTokens))
	}
}

// RecordFailedAttempt counts a failed attempt. Transport errors use status "error".
func (m *Metrics) RecordFailedAttempt(nodeName, status string) {
	if m == nil {
		return
	}
	m.failedAttempts.WithLabelValues(nodeName, status).Inc()
}
