package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_UploadLifecycle(t *testing.T) {
	m := New("test")

	m.UploadStarted(2048)
	assert.Equal(t, 1.0, promtest.ToFloat64(m.uploadsInFlight))

	m.UploadFinished(OutcomeSuccess, 1500*time.Millisecond)
	assert.Equal(t, 0.0, promtest.ToFloat64(m.uploadsInFlight))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.uploadsTotal.WithLabelValues(OutcomeSuccess)))

	m.UploadRefused(OutcomeRejected)
	m.UploadRefused(OutcomeRejected)
	assert.Equal(t, 2.0, promtest.ToFloat64(m.uploadsTotal.WithLabelValues(OutcomeRejected)))

	m.SessionsActive(3)
	assert.Equal(t, 3.0, promtest.ToFloat64(m.activeSessions))

	m.Reset()
	assert.Equal(t, 1.0, promtest.ToFloat64(m.resetsTotal))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.UploadStarted(1)
		m.UploadFinished(OutcomeFailed, time.Second)
		m.UploadRefused(OutcomeBusy)
		m.SessionsActive(1)
		m.Reset()
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New("test")
	m.UploadRefused(OutcomeBusy)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `researchmate_upload_total{outcome="busy",service="test"} 1`)
}
