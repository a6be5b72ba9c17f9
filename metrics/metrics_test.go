package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSubmission(t *testing.T) {
	m := New()
	m.ObserveSubmission("Running", 4, []string{"weeklyCap"})
	m.ObserveSubmission("Running", 0, []string{"weeklyCap", "dailyCap"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("Running")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.pointsAwarded))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.capsApplied.WithLabelValues("weeklyCap")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.capsApplied.WithLabelValues("dailyCap")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("/x", http.MethodGet, 200, time.Millisecond)
		m.ObserveSubmission("Running", 1, nil)
		m.ObserveRejection("")
		m.LiveClientConnected()
		m.ObserveRateLimited()
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveRequest("/api/competitions", http.MethodGet, 200, 10*time.Millisecond)
	m.ObserveRejection("limit_reached")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `fitcomp_http_requests_total{method="GET",route="/api/competitions",status="200"} 1`)
	assert.Contains(t, body, `fitcomp_submissions_rejected_total{reason="limit_reached"} 1`)
}
