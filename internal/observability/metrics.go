// Package observability exposes Prometheus metrics and a structured audit
// log for tool executions and conversation turns.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	toolExecutionTotal    *prometheus.CounterVec
	toolExecutionDuration *prometheus.HistogramVec

	turnTotal    *prometheus.CounterVec
	turnDuration prometheus.Histogram
	turnRounds   prometheus.Histogram

	providerRequestTotal    *prometheus.CounterVec
	providerRequestDuration *prometheus.HistogramVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			toolExecutionTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "tool_execution_total",
					Help: "Total tool executions by tool and terminal state.",
				},
				[]string{"tool", "state"},
			),
			toolExecutionDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "tool_execution_duration_seconds",
					Help:    "Tool execution duration in seconds by tool.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"tool"},
			),
			turnTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "conversation_turn_total",
					Help: "Total conversation turns by outcome.",
				},
				[]string{"outcome"},
			),
			turnDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "conversation_turn_duration_seconds",
					Help:    "Conversation turn duration in seconds.",
					Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
				},
			),
			turnRounds: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "conversation_turn_rounds",
					Help:    "Provider round-trips per conversation turn.",
					Buckets: []float64{1, 2, 3, 5, 10, 25, 50, 100},
				},
			),
			providerRequestTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "provider_request_total",
					Help: "Total provider requests by provider and status.",
				},
				[]string{"provider", "status"},
			),
			providerRequestDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "provider_request_duration_seconds",
					Help:    "Provider request duration in seconds by provider.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"provider"},
			),
		}

		prometheus.MustRegister(
			m.toolExecutionTotal,
			m.toolExecutionDuration,
			m.turnTotal,
			m.turnDuration,
			m.turnRounds,
			m.providerRequestTotal,
			m.providerRequestDuration,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

// MetricsHandler returns the Prometheus scrape handler.
func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

// RecordToolExecution records one tool dispatch outcome.
func RecordToolExecution(tool, state string, duration time.Duration) {
	m := getMetrics()
	m.toolExecutionTotal.WithLabelValues(tool, state).Inc()
	m.toolExecutionDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordTurn records one conversation turn outcome.
func RecordTurn(outcome string, rounds int, duration time.Duration) {
	m := getMetrics()
	m.turnTotal.WithLabelValues(outcome).Inc()
	m.turnDuration.Observe(duration.Seconds())
	m.turnRounds.Observe(float64(rounds))
}

// RecordProviderRequest records one model provider round-trip.
func RecordProviderRequest(provider string, duration time.Duration, success bool) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.providerRequestTotal.WithLabelValues(provider, status).Inc()
	m.providerRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}
