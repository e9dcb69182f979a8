package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/researchmate/webclient/internal/metrics"
	"github.com/researchmate/webclient/internal/models"
)

// FailureAlert is shown to the user whenever an upload does not produce a result.
const FailureAlert = "Failed to analyze document. Please try again."

var (
	ErrBusy           = errors.New("an upload is already in progress")
	ErrNotIdle        = errors.New("a result is already being reviewed")
	ErrAnalysisFailed = errors.New("analysis failed")
)

// Uploader sends a manuscript to the analysis service.
type Uploader interface {
	Submit(ctx context.Context, file *models.SelectedFile) (*models.UploadResponse, error)
}

// state is either idleState or reviewState.
type state interface {
	phase() models.Phase
}

type idleState struct {
	busy bool
}

func (idleState) phase() models.Phase { return models.PhaseIdle }

type reviewState struct {
	analysis     *models.AnalysisResult
	originalFile *models.SelectedFile
	downloadURL  string
}

func (reviewState) phase() models.Phase { return models.PhaseReview }

// Coordinator owns the state of one browser session and moves it between
// the upload view and the review view.
type Coordinator struct {
	id       string
	uploader Uploader
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu    sync.Mutex
	state state
}

// NewCoordinator creates a coordinator in the idle state.
func NewCoordinator(id string, uploader Uploader, logger *slog.Logger, m *metrics.Metrics) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		id:       id,
		uploader: uploader,
		logger:   logger.With("session", id),
		metrics:  m,
		state:    idleState{},
	}
}

// ID returns the session ID.
func (c *Coordinator) ID() string {
	return c.id
}

// Submit uploads file and, on success, moves to review. Only one upload may
// be outstanding; the busy flag is cleared however the call settles.
func (c *Coordinator) Submit(ctx context.Context, file *models.SelectedFile) error {
	c.mu.Lock()
	idle, ok := c.state.(idleState)
	if !ok {
		c.mu.Unlock()
		c.metrics.UploadRefused(metrics.OutcomeNotIdle)
		return ErrNotIdle
	}
	if idle.busy {
		c.mu.Unlock()
		c.metrics.UploadRefused(metrics.OutcomeBusy)
		return ErrBusy
	}
	c.state = idleState{busy: true}
	c.mu.Unlock()

	start := time.Now()
	c.metrics.UploadStarted(file.Size)
	c.logger.Info("upload started", "file", file.Name, "size", file.Size)

	resp, err := c.uploader.Submit(ctx, file)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.state = idleState{}
		c.metrics.UploadFinished(metrics.OutcomeFailed, time.Since(start))
		c.logger.Error("Error uploading file", "file", file.Name, "error", err)
		return fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	analysis := resp.Analysis
	if analysis == nil {
		analysis = &models.AnalysisResult{}
	}
	c.state = reviewState{
		analysis:     analysis,
		originalFile: file,
		downloadURL:  resp.DownloadURL,
	}
	c.metrics.UploadFinished(metrics.OutcomeSuccess, time.Since(start))
	c.logger.Info("upload analyzed",
		"file", file.Name,
		"keywords", len(analysis.KeywordList()),
		"issues", len(analysis.IssueList()),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Reset returns to the upload view, dropping the analysis, the original file
// and the download reference together. From the upload view it does nothing.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.state.(reviewState); !ok {
		return
	}
	c.state = idleState{}
	c.metrics.Reset()
}

// Busy reports whether an upload is outstanding.
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	idle, ok := c.state.(idleState)
	return ok && idle.busy
}

// State returns a snapshot of the current state.
func (c *Coordinator) State() models.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := models.SessionState{ID: c.id, Phase: c.state.phase()}
	switch s := c.state.(type) {
	case idleState:
		snap.Busy = s.busy
	case reviewState:
		snap.Review = &models.ReviewState{
			Analysis:     s.analysis,
			OriginalFile: s.originalFile,
			DownloadURL:  s.downloadURL,
		}
	}
	return snap
}
