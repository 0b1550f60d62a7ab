package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/events"
)

const metricsNamespace = "icu_staff"

// Metrics holds HTTP and domain collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorTotal      *prometheus.CounterVec

	documentsUploaded prometheus.Counter
	uploadBytes       prometheus.Histogram
	verifications     *prometheus.CounterVec
	auditEntries      *prometheus.CounterVec
	statusRefreshes   *prometheus.CounterVec
}

// NewMetrics registers every collector, including the Go runtime and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		errorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_errors_total",
			Help:      "Total number of error responses by error code",
		}, []string{"method", "route", "code"}),
		documentsUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "document_uploads_total",
			Help:      "Total number of stored document versions",
		}),
		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "document_upload_bytes",
			Help:      "Size of stored document versions",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 8),
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "document_verifications_total",
			Help:      "Total number of verification decisions",
		}, []string{"decision"}),
		auditEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "audit_entries_total",
			Help:      "Total number of audit ledger entries",
		}, []string{"action"}),
		statusRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "status_refresh_changes_total",
			Help:      "Rows whose persisted status changed during a refresh",
		}, []string{"kind"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestTotal, m.requestDuration, m.errorTotal,
		m.documentsUploaded, m.uploadBytes, m.verifications, m.auditEntries, m.statusRefreshes,
	)
	return m
}

// RecordRequest observes one finished request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError counts an error response by domain code.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errorTotal.WithLabelValues(method, route, code).Inc()
}

// Subscribe feeds the domain counters from published events.
func (m *Metrics) Subscribe(d events.Dispatcher) {
	if m == nil || d == nil {
		return
	}
	d.Subscribe(events.EventDocumentUploaded, m.onUploaded)
	d.Subscribe(events.EventDocumentVerified, m.onVerified)
	d.Subscribe(events.EventAuditRecorded, m.onAudit)
	d.Subscribe(events.EventStatusesRefreshed, m.onRefresh)
}

func (m *Metrics) onUploaded(_ context.Context, e events.Event) error {
	m.documentsUploaded.Inc()
	if p, ok := e.Payload.(events.DocumentUploadedPayload); ok {
		m.uploadBytes.Observe(float64(p.SizeBytes))
	}
	return nil
}

func (m *Metrics) onVerified(_ context.Context, e events.Event) error {
	if p, ok := e.Payload.(events.DocumentVerifiedPayload); ok {
		m.verifications.WithLabelValues(string(p.Decision)).Inc()
	}
	return nil
}

func (m *Metrics) onAudit(_ context.Context, e events.Event) error {
	if p, ok := e.Payload.(events.AuditRecordedPayload); ok {
		for _, action := range p.Actions {
			m.auditEntries.WithLabelValues(string(action)).Inc()
		}
	}
	return nil
}

func (m *Metrics) onRefresh(_ context.Context, e events.Event) error {
	if p, ok := e.Payload.(events.StatusesRefreshedPayload); ok {
		m.statusRefreshes.WithLabelValues("staff").Add(float64(p.StaffChanged))
		m.statusRefreshes.WithLabelValues("document").Add(float64(p.DocumentsChanged))
	}
	return nil
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
