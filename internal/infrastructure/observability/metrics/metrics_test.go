package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCountersAppearInExposition(t *testing.T) {
	m := New()
	m.ObserveRequest("POST", "/api/submit", "201", 0.02)
	m.LoginAttempt("bad_password")
	m.LoginAttempt("bad_password")
	m.AccountLockout()
	m.SideEffectFailed(SideEffectEmail)
	m.LeadCreated("submit")
	m.EmailSent()

	out := scrape(t, m)
	assert.Contains(t, out, `erp_http_requests_total{method="POST",route="/api/submit",status="201"} 1`)
	assert.Contains(t, out, `erp_login_attempts_total{outcome="bad_password"} 2`)
	assert.Contains(t, out, `erp_account_lockouts_total 1`)
	assert.Contains(t, out, `erp_side_effect_failures_total{kind="email"} 1`)
	assert.Contains(t, out, `erp_leads_created_total{source="submit"} 1`)
	assert.Contains(t, out, `erp_emails_sent_total 1`)
	assert.Contains(t, out, `erp_http_request_duration_seconds_count{method="POST",route="/api/submit"} 1`)
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.AccountLockout()
	assert.Contains(t, scrape(t, a), "erp_account_lockouts_total 1")
	assert.Contains(t, scrape(t, b), "erp_account_lockouts_total 0")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", "200", 0.1)
		m.LoginAttempt("success")
		m.AccountLockout()
		m.SideEffectFailed(SideEffectAudit)
		m.LeadCreated("contact-form")
		m.EmailSent()
	})
}
