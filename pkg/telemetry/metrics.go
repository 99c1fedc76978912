package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for workflow orchestration. A nil
// *Metrics or a disabled configuration makes every Record method a no-op.
type Metrics struct {
	config MetricsConfig

	submissions        *prometheus.CounterVec
	pollAttempts       *prometheus.CounterVec
	workflowsCompleted *prometheus.CounterVec
	workflowDuration   *prometheus.HistogramVec
	cleanups           *prometheus.CounterVec
	failures           *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_submitted_total",
				Help:      "Total number of remote operations submitted",
			},
			[]string{"workflow"},
		),
		pollAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_attempts_total",
				Help:      "Total number of status poll attempts, by final classification",
			},
			[]string{"workflow", "status"},
		),
		workflowsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflows_completed_total",
				Help:      "Total number of workflow runs completed",
			},
			[]string{"workflow", "outcome"},
		),
		workflowDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workflow_duration_seconds",
				Help:      "End-to-end duration of workflow runs in seconds",
				Buckets:   buckets,
			},
			[]string{"workflow"},
		),
		cleanups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cleanups_total",
				Help:      "Total number of resource teardowns, by acceptance",
			},
			[]string{"workflow", "accepted"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_failures_total",
				Help:      "Total number of workflow failures, by failure kind",
			},
			[]string{"kind"},
		),
	}

	collectors := []prometheus.Collector{
		m.submissions,
		m.pollAttempts,
		m.workflowsCompleted,
		m.workflowDuration,
		m.cleanups,
		m.failures,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) disabled() bool {
	return m == nil || m.registry == nil
}

// RecordSubmission counts one submitted operation.
func (m *Metrics) RecordSubmission(workflow string) {
	if m.disabled() {
		return
	}
	m.submissions.WithLabelValues(workflow).Inc()
}

// RecordPollAttempts counts the poll attempts consumed by one run, labeled
// with the final classification.
func (m *Metrics) RecordPollAttempts(workflow, status string, attempts int) {
	if m.disabled() {
		return
	}
	m.pollAttempts.WithLabelValues(workflow, status).Add(float64(attempts))
}

// RecordWorkflowCompleted counts one finished run and observes its duration.
func (m *Metrics) RecordWorkflowCompleted(workflow, outcome string, duration time.Duration) {
	if m.disabled() {
		return
	}
	m.workflowsCompleted.WithLabelValues(workflow, outcome).Inc()
	m.workflowDuration.WithLabelValues(workflow).Observe(duration.Seconds())
}

// RecordCleanup counts one teardown, by whether it was accepted.
func (m *Metrics) RecordCleanup(workflow string, accepted bool) {
	if m.disabled() {
		return
	}
	m.cleanups.WithLabelValues(workflow, fmt.Sprintf("%t", accepted)).Inc()
}

// RecordFailure counts one classified workflow failure.
func (m *Metrics) RecordFailure(kind string) {
	if m.disabled() {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

// Handler returns an HTTP handler serving the metrics registry.
func (m *Metrics) Handler() http.Handler {
	if m.disabled() {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartMetricsServer starts the metrics HTTP listener if one is configured.
// Most snapdrill invocations are one-shot and skip this; it exists for
// long-lived scheduled use.
func (m *Metrics) StartMetricsServer() error {
	if m.disabled() || m.config.ListenAddress == "" {
		return nil
	}
	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	go func() {
		_ = http.ListenAndServe(m.config.ListenAddress, mux)
	}()
	return nil
}
