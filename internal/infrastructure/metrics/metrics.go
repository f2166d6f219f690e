// Package metrics provides Prometheus collectors for lifecycle operations
// and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"portfolio/internal/domain/audit"
	"portfolio/internal/domain/lifecycle"
)

const (
	MetricOperationsTotal    = "lifecycle_operations_total"
	MetricOperationDuration  = "lifecycle_operation_duration_seconds"
	MetricAuditFailuresTotal = "lifecycle_audit_failures_total"
	MetricHTTPRequestsTotal  = "http_requests_total"
	MetricHTTPRequestSeconds = "http_request_duration_seconds"
)

// Metrics contains all collectors. It implements lifecycle.Recorder.
// Collectors are not registered until Register is called.
type Metrics struct {
	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	auditFailures *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

var _ lifecycle.Recorder = (*Metrics)(nil)

func New() *Metrics {
	return &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricOperationsTotal,
				Help: "Lifecycle operations by entity type, operation and outcome",
			},
			[]string{"entity_type", "operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricOperationDuration,
				Help:    "Lifecycle operation latency in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"entity_type", "operation"},
		),
		auditFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricAuditFailuresTotal,
				Help: "Audit entries that could not be appended",
			},
			[]string{"entity_type", "action"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestSeconds,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.0},
			},
			[]string{"method", "path"},
		),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.operations,
		m.duration,
		m.auditFailures,
		m.httpRequests,
		m.httpDuration,
	}
}

func (m *Metrics) ObserveOperation(entityType, operation, outcome string, elapsed time.Duration) {
	m.operations.WithLabelValues(entityType, operation, outcome).Inc()
	m.duration.WithLabelValues(entityType, operation).Observe(elapsed.Seconds())
}

func (m *Metrics) AuditFailure(entityType string, action audit.Action) {
	m.auditFailures.WithLabelValues(entityType, string(action)).Inc()
}

// ObserveHTTP records one served request. path is the route template.
func (m *Metrics) ObserveHTTP(method, path, status string, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}
