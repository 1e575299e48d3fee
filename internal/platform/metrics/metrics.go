package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Session metrics
	SignInsTotal  *prometheus.CounterVec // Interactive sign-ins by outcome
	Authenticated prometheus.Gauge       // 1 while a principal is signed in

	// Registry metrics
	RegistryBuildsTotal *prometheus.CounterVec // Registry rebuilds by result
	RegistryHandles     prometheus.Gauge       // Handles in the published set
	StaleHandleUses     prometheus.Counter     // Calls rejected on a superseded handle

	// Remote call metrics
	RemoteCallsTotal        *prometheus.CounterVec   // Calls by service, method, outcome
	RemoteCallDuration      *prometheus.HistogramVec // Call latency by service
	DecodeViolationsTotal   *prometheus.CounterVec   // Responses outside the wire encoding by service
	CircuitBreakerOpenTotal *prometheus.CounterVec   // Breaker trips by service

	// Aggregation metrics
	DashboardSectionsTotal *prometheus.CounterVec // Dashboard sections by service and status
	DashboardDuration      prometheus.Histogram
	FormSubmissionsTotal   *prometheus.CounterVec // Form submissions by form and outcome

	EndpointLatency *prometheus.HistogramVec
}

// New creates all metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SignInsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "globaltrust_sign_ins_total",
			Help: "Total number of interactive sign-ins, labeled by outcome",
		}, []string{"outcome"}),
		Authenticated: f.NewGauge(prometheus.GaugeOpts{
			Name: "globaltrust_session_authenticated",
			Help: "Whether a principal is currently signed in",
		}),
		RegistryBuildsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "globaltrust_registry_builds_total",
			Help: "Total number of service registry builds, labeled by result",
		}, []string{"result"}),
		RegistryHandles: f.NewGauge(prometheus.GaugeOpts{
			Name: "globaltrust_registry_handles",
			Help: "Number of service handles in the published registry",
		}),
		StaleHandleUses: f.NewCounter(prometheus.CounterOpts{
			Name: "globaltrust_stale_handle_uses_total",
			Help: "Total number of calls rejected because the handle belonged to a previous session",
		}),
		RemoteCallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "globaltrust_remote_calls_total",
			Help: "Total number of remote service calls, labeled by service, method and outcome",
		}, []string{"service", "method", "outcome"}),
		RemoteCallDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "globaltrust_remote_call_duration_seconds",
			Help:    "Latency of remote service calls in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"service"}),
		DecodeViolationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "globaltrust_decode_violations_total",
			Help: "Total number of responses that did not match the wire encoding, labeled by service",
		}, []string{"service"}),
		CircuitBreakerOpenTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "globaltrust_circuit_breaker_open_total",
			Help: "Total number of times a service circuit breaker opened",
		}, []string{"service"}),
		DashboardSectionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "globaltrust_dashboard_sections_total",
			Help: "Total number of dashboard sections, labeled by service and status",
		}, []string{"service", "status"}),
		DashboardDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "globaltrust_dashboard_duration_seconds",
			Help:    "Latency of dashboard aggregation in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		FormSubmissionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "globaltrust_form_submissions_total",
			Help: "Total number of form submissions, labeled by form and outcome",
		}, []string{"form", "outcome"}),
		EndpointLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "globaltrust_endpoint_latency_seconds",
			Help:    "Latency of BFF endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// RecordSignIn counts an interactive sign-in attempt.
func (m *Metrics) RecordSignIn(outcome string) {
	if m == nil {
		return
	}
	m.SignInsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetAuthenticated(signedIn bool) {
	if m == nil {
		return
	}
	if signedIn {
		m.Authenticated.Set(1)
		return
	}
	m.Authenticated.Set(0)
}

// RecordRegistryBuild counts a rebuild and updates the handle gauge.
func (m *Metrics) RecordRegistryBuild(result string, handles int) {
	if m == nil {
		return
	}
	m.RegistryBuildsTotal.WithLabelValues(result).Inc()
	m.RegistryHandles.Set(float64(handles))
}

func (m *Metrics) IncrementStaleHandleUses() {
	if m == nil {
		return
	}
	m.StaleHandleUses.Inc()
}

// ObserveRemoteCall records one remote call with its outcome and latency.
func (m *Metrics) ObserveRemoteCall(service, method, outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.RemoteCallsTotal.WithLabelValues(service, method, outcome).Inc()
	m.RemoteCallDuration.WithLabelValues(service).Observe(durationSeconds)
}

func (m *Metrics) IncrementDecodeViolations(service string) {
	if m == nil {
		return
	}
	m.DecodeViolationsTotal.WithLabelValues(service).Inc()
}

func (m *Metrics) IncrementCircuitOpen(service string) {
	if m == nil {
		return
	}
	m.CircuitBreakerOpenTotal.WithLabelValues(service).Inc()
}

// RecordDashboardSection counts a dashboard section by its final status.
func (m *Metrics) RecordDashboardSection(service, status string) {
	if m == nil {
		return
	}
	m.DashboardSectionsTotal.WithLabelValues(service, status).Inc()
}

func (m *Metrics) ObserveDashboardDuration(durationSeconds float64) {
	if m == nil {
		return
	}
	m.DashboardDuration.Observe(durationSeconds)
}

func (m *Metrics) RecordFormSubmission(form, outcome string) {
	if m == nil {
		return
	}
	m.FormSubmissionsTotal.WithLabelValues(form, outcome).Inc()
}

// ObserveEndpointLatency records the latency for a given endpoint
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
