package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/researchmate/webclient/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestHandleGetState_JSON(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(getRequest("/api/state", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var state models.SessionState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, models.PhaseIdle, state.Phase)
	assert.False(t, state.Busy)
	assert.Equal(t, cookieValue(rec, SessionCookie), state.ID)
}

func TestHandleGetState_Msgpack(t *testing.T) {
	s := newTestServer(t)
	s.backend.RespondJSON(http.StatusOK, analysisResponse("T", []string{"a", "b"}, []models.Issue{
		{Type: "FORMAT", Description: "Margins too narrow"},
	}))

	up := s.do(docxUpload(t, "", true))
	require.Equal(t, http.StatusOK, up.Code)

	req := getRequest("/api/state", cookieValue(up, SessionCookie))
	req.Header.Set(echo.HeaderAccept, MIMEApplicationMsgpack)
	rec := s.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, MIMEApplicationMsgpack, rec.Header().Get(echo.HeaderContentType))

	var state models.SessionState
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, models.PhaseReview, state.Phase)
	require.NotNil(t, state.Review)
	assert.Equal(t, "T", state.Review.Analysis.Title)
	assert.Equal(t, []string{"a", "b"}, state.Review.Analysis.Keywords)
	require.Len(t, state.Review.Analysis.Issues, 1)
	assert.Equal(t, "FORMAT", state.Review.Analysis.Issues[0].Type)
	assert.Equal(t, "paper.docx", state.Review.OriginalFile.Name)
	assert.Nil(t, state.Review.OriginalFile.Data)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(getRequest("/api/health", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, s.backend.URL(), body["analysisOrigin"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(uploadRequest(t, "a.pdf", "application/pdf", []byte("x"), "", true))

	rec := s.do(getRequest("/metrics", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "researchmate_upload_total"), "metrics output should include upload counters")
	assert.Contains(t, body, `outcome="rejected"`)
}

func TestStaticAssetsServed(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(getRequest("/static/app.js", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}
