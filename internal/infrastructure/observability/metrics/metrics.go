// Package metrics exposes Prometheus instrumentation for the ERP backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Side effect kinds counted by SideEffectFailed.
const (
	SideEffectAudit    = "audit"
	SideEffectActivity = "activity"
	SideEffectEmail    = "email"
	SideEffectCache    = "cache"
)

// Metrics owns a private registry so that several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	loginAttempts     *prometheus.CounterVec
	accountLockouts   prometheus.Counter
	sideEffectFailure *prometheus.CounterVec
	leadsCreated      *prometheus.CounterVec
	emailsSent        prometheus.Counter
}

// New creates and registers every collector.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "erp_http_requests_total",
			Help: "HTTP requests by method, route template and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "erp_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route template.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "erp_login_attempts_total",
			Help: "Dashboard login attempts by outcome.",
		}, []string{"outcome"}),
		accountLockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "erp_account_lockouts_total",
			Help: "Admin accounts deactivated after too many failed logins.",
		}),
		sideEffectFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "erp_side_effect_failures_total",
			Help: "Best-effort side effects that failed and were swallowed.",
		}, []string{"kind"}),
		leadsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "erp_leads_created_total",
			Help: "Leads created by source endpoint.",
		}, []string{"source"}),
		emailsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "erp_emails_sent_total",
			Help: "Notification emails accepted by the provider.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.loginAttempts,
		m.accountLockouts,
		m.sideEffectFailure,
		m.leadsCreated,
		m.emailsSent,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AccountLockout() {
	if m == nil {
		return
	}
	m.accountLockouts.Inc()
}

func (m *Metrics) SideEffectFailed(kind string) {
	if m == nil {
		return
	}
	m.sideEffectFailure.WithLabelValues(kind).Inc()
}

func (m *Metrics) LeadCreated(source string) {
	if m == nil {
		return
	}
	m.leadsCreated.WithLabelValues(source).Inc()
}

func (m *Metrics) EmailSent() {
	if m == nil {
		return
	}
	m.emailsSent.Inc()
}
