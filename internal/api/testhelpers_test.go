package api

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/researchmate/webclient/internal/analysis"
	"github.com/researchmate/webclient/internal/metrics"
	"github.com/researchmate/webclient/internal/models"
	"github.com/researchmate/webclient/internal/session"
	"github.com/researchmate/webclient/internal/testutil"
	"github.com/researchmate/webclient/internal/web"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	e        *echo.Echo
	backend  *testutil.FakeBackend
	sessions *session.Manager
	metrics  *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, MiddlewareConfig{BodyLimit: "10M"})
}

func newTestServerWith(t *testing.T, mwConfig MiddlewareConfig) *testServer {
	t.Helper()

	backend := testutil.NewFakeBackend()
	t.Cleanup(backend.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New("test")
	client := analysis.NewClient(backend.URL(), nil, logger)
	sessions := session.NewManager(client, logger, m)

	e := echo.New()
	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	e.Renderer = renderer

	limiter := SetupMiddleware(e, mwConfig)

	handlers := NewHandlers(&Dependencies{
		Sessions:    sessions,
		Metrics:     m,
		Logger:      logger,
		DownloadURL: client.DownloadURL,
		AnalysisURL: client.Origin(),
		Version:     "test",
	})
	require.NoError(t, RegisterRoutes(e, handlers, m, limiter))

	return &testServer{e: e, backend: backend, sessions: sessions, metrics: m}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// uploadRequest builds a multipart POST /upload with one "file" part.
func uploadRequest(t *testing.T, name, contentType string, data []byte, sessionID string, acceptJSON bool) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, name))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("source", "drop"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	if acceptJSON {
		req.Header.Set(echo.HeaderAccept, echo.MIMEApplicationJSON)
	}
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sessionID})
	}
	return req
}

func docxUpload(t *testing.T, sessionID string, acceptJSON bool) *http.Request {
	return uploadRequest(t, "paper.docx", models.DocxContentType, []byte("PK\x03\x04docx"), sessionID, acceptJSON)
}

func getRequest(path, sessionID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sessionID})
	}
	return req
}

func cookieValue(rec *httptest.ResponseRecorder, name string) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func analysisResponse(title string, keywords []string, issues []models.Issue) models.UploadResponse {
	return models.UploadResponse{
		Analysis: &models.AnalysisResult{
			Title:    title,
			Keywords: keywords,
			Issues:   issues,
		},
		DownloadURL: "/files/out.docx",
	}
}
