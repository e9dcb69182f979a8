package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/researchmate/webclient/internal/analysis"
	"github.com/researchmate/webclient/internal/metrics"
	"github.com/researchmate/webclient/internal/models"
	"github.com/researchmate/webclient/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUploader struct {
	resp    *models.UploadResponse
	err     error
	calls   int
	started chan struct{}
	release chan struct{}
}

func (s *stubUploader) Submit(ctx context.Context, file *models.SelectedFile) (*models.UploadResponse, error) {
	s.calls++
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		<-s.release
	}
	return s.resp, s.err
}

func paper() *models.SelectedFile {
	return &models.SelectedFile{
		Name:        "paper.docx",
		ContentType: models.DocxContentType,
		Size:        3,
		Data:        []byte("doc"),
	}
}

func TestCoordinator_StartsIdle(t *testing.T) {
	c := NewCoordinator("s1", &stubUploader{}, nil, nil)
	st := c.State()

	assert.Equal(t, "s1", st.ID)
	assert.Equal(t, models.PhaseIdle, st.Phase)
	assert.False(t, st.Busy)
	assert.Nil(t, st.Review)
	assert.False(t, st.InReview())
}

func TestCoordinator_SubmitSuccess(t *testing.T) {
	up := &stubUploader{resp: &models.UploadResponse{
		Analysis:    &models.AnalysisResult{Title: "T", Keywords: []string{"a", "b"}},
		DownloadURL: "/files/out.docx",
	}}
	c := NewCoordinator("s1", up, nil, metrics.New("test"))

	require.NoError(t, c.Submit(context.Background(), paper()))

	st := c.State()
	assert.Equal(t, models.PhaseReview, st.Phase)
	assert.False(t, st.Busy)
	require.True(t, st.InReview())
	assert.Equal(t, "T", st.Review.Analysis.Title)
	assert.Equal(t, "paper.docx", st.Review.OriginalFile.Name)
	assert.Equal(t, "/files/out.docx", st.Review.DownloadURL)
	assert.Equal(t, 1, up.calls)
}

func TestCoordinator_SubmitFailure(t *testing.T) {
	up := &stubUploader{err: analysis.ErrUploadFailed}
	c := NewCoordinator("s1", up, nil, nil)

	err := c.Submit(context.Background(), paper())
	assert.ErrorIs(t, err, ErrAnalysisFailed)
	assert.ErrorIs(t, err, analysis.ErrUploadFailed)

	st := c.State()
	assert.Equal(t, models.PhaseIdle, st.Phase)
	assert.False(t, st.Busy)
	assert.Nil(t, st.Review)
}

func TestCoordinator_BusyRejectsSecondSubmit(t *testing.T) {
	up := &stubUploader{
		resp:    &models.UploadResponse{Analysis: &models.AnalysisResult{Title: "T"}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := NewCoordinator("s1", up, nil, nil)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), paper()) }()

	<-up.started
	assert.True(t, c.Busy())
	assert.True(t, c.State().Busy)
	assert.ErrorIs(t, c.Submit(context.Background(), paper()), ErrBusy)

	// Reset while busy is a no-op.
	c.Reset()
	assert.True(t, c.Busy())

	close(up.release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not settle")
	}

	assert.False(t, c.Busy())
	assert.Equal(t, 1, up.calls)
	assert.True(t, c.State().InReview())
}

func TestCoordinator_SubmitFromReviewRejected(t *testing.T) {
	up := &stubUploader{resp: &models.UploadResponse{Analysis: &models.AnalysisResult{}}}
	c := NewCoordinator("s1", up, nil, nil)
	require.NoError(t, c.Submit(context.Background(), paper()))

	assert.ErrorIs(t, c.Submit(context.Background(), paper()), ErrNotIdle)
	assert.Equal(t, 1, up.calls)
}

func TestCoordinator_RefusalsCountedByReason(t *testing.T) {
	m := metrics.New("test")
	up := &stubUploader{
		resp:    &models.UploadResponse{Analysis: &models.AnalysisResult{}},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := NewCoordinator("s1", up, nil, m)

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background(), paper()) }()
	<-up.started

	assert.ErrorIs(t, c.Submit(context.Background(), paper()), ErrBusy)
	close(up.release)
	require.NoError(t, <-done)

	assert.ErrorIs(t, c.Submit(context.Background(), paper()), ErrNotIdle)
	assert.ErrorIs(t, c.Submit(context.Background(), paper()), ErrNotIdle)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `researchmate_upload_total{outcome="busy",service="test"} 1`)
	assert.Contains(t, body, `researchmate_upload_total{outcome="not_idle",service="test"} 2`)
}

func TestCoordinator_Reset(t *testing.T) {
	up := &stubUploader{resp: &models.UploadResponse{
		Analysis:    &models.AnalysisResult{Title: "T"},
		DownloadURL: "/x.docx",
	}}
	c := NewCoordinator("s1", up, nil, metrics.New("test"))
	require.NoError(t, c.Submit(context.Background(), paper()))
	require.True(t, c.State().InReview())

	c.Reset()

	st := c.State()
	assert.Equal(t, models.PhaseIdle, st.Phase)
	assert.False(t, st.Busy)
	assert.Nil(t, st.Review)
}

func TestCoordinator_ResetFromIdleIsNoop(t *testing.T) {
	c := NewCoordinator("s1", &stubUploader{}, nil, nil)
	before := c.State()

	assert.NotPanics(t, func() {
		c.Reset()
		c.Reset()
	})
	assert.Equal(t, before, c.State())
}

func TestCoordinator_NilAnalysisBecomesEmpty(t *testing.T) {
	up := &stubUploader{resp: &models.UploadResponse{DownloadURL: "/x.docx"}}
	c := NewCoordinator("s1", up, nil, nil)

	require.NoError(t, c.Submit(context.Background(), paper()))
	st := c.State()
	require.True(t, st.InReview())
	assert.Empty(t, st.Review.Analysis.Title)
}

func TestCoordinator_WithAnalysisClient(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	client := analysis.NewClient(backend.URL(), nil, nil)

	t.Run("non-2xx returns to upload view", func(t *testing.T) {
		backend.RespondRaw(http.StatusInternalServerError, []byte(`{"message":"boom"}`))
		c := NewCoordinator("s-fail", client, nil, nil)

		err := c.Submit(context.Background(), paper())
		assert.True(t, errors.Is(err, analysis.ErrUploadFailed))

		st := c.State()
		assert.False(t, st.InReview())
		assert.False(t, st.Busy)
	})

	t.Run("2xx moves to review", func(t *testing.T) {
		backend.RespondJSON(http.StatusOK, map[string]any{
			"analysis": map[string]any{
				"title":    "T",
				"keywords": []string{"a", "b"},
				"issues":   []map[string]string{{"type": "REF", "description": "Broken citation"}},
			},
			"download_url": "/files/out.docx",
		})
		c := NewCoordinator("s-ok", client, nil, nil)

		require.NoError(t, c.Submit(context.Background(), paper()))
		st := c.State()
		require.True(t, st.InReview())
		assert.Equal(t, []models.Issue{{Type: "REF", Description: "Broken citation"}}, st.Review.Analysis.Issues)
	})
}
