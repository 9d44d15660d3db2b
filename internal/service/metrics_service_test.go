package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCountsLoginAttempts(t *testing.T) {
	m := NewMetricsService()
	m.RecordLoginAttempt("staff", OutcomeSuccess)
	m.RecordLoginAttempt("staff", OutcomeRejected)
	m.RecordLoginAttempt("staff", OutcomeRejected)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.authAttempts.WithLabelValues("staff", OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.authAttempts.WithLabelValues("staff", OutcomeRejected)))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordLoginAttempt("staff", OutcomeSuccess)
		m.RecordCascade(cascadeClassDelete, OutcomeSuccess)
		m.ObserveHTTPRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)
		m.RecordCacheOperation(true, time.Millisecond)
		m.ObserveCacheWrite(time.Millisecond)
	})
}

func TestMetricsServiceHandlerExposesCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordCascade(cascadeStudentDelete, OutcomeSuccess)
	m.ObserveHTTPRequest(http.MethodGet, "/api/classes", http.StatusOK, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `entity_cascade_operations_total{operation="student_delete",outcome="success"} 1`)
	assert.Contains(t, body, "http_requests_total")
}
