// handlers_upload.go - Manuscript upload handler
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/researchmate/webclient/internal/metrics"
	"github.com/researchmate/webclient/internal/models"
	"github.com/researchmate/webclient/internal/session"
	"github.com/researchmate/webclient/internal/upload"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	sessions      *session.Manager
	metrics       *metrics.Metrics
	logger        *slog.Logger
	secureCookies bool
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(sessions *session.Manager, m *metrics.Metrics, logger *slog.Logger, secureCookies bool) UploadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadHandlerImpl{
		sessions:      sessions,
		metrics:       m,
		logger:        logger,
		secureCookies: secureCookies,
	}
}

// HandleUpload accepts a multipart "file" field from the page, validates it
// and forwards it to the analysis service through the session coordinator.
// JSON callers get the new state or an APIError; form callers are redirected
// back to the page with a one-shot alert on failure.
func (h *UploadHandlerImpl) HandleUpload(c echo.Context) error {
	coord := h.sessions.GetOrCreate(sessionIDFromCookie(c))
	setSessionCookie(c, coord.ID(), h.secureCookies)

	err := h.submit(c, coord)
	if err == nil {
		if wantsJSON(c) {
			return c.JSON(http.StatusOK, coord.State())
		}
		return c.Redirect(http.StatusSeeOther, "/")
	}

	apiErr := toAPIError(err)
	if wantsJSON(c) {
		return apiErr
	}
	setAlertCookie(c, alertCodeFor(apiErr), h.secureCookies)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *UploadHandlerImpl) submit(c echo.Context, coord *session.Coordinator) error {
	fh, err := c.FormFile("file")
	if err != nil {
		h.metrics.UploadRefused(metrics.OutcomeRejected)
		return upload.ErrNoFile
	}

	file, err := upload.FileFromHeader(fh)
	if err != nil {
		return NewBadRequestError("failed to read uploaded file", err)
	}

	ctx := c.Request().Context()
	control := upload.NewControl(func(f *models.SelectedFile) error {
		return coord.Submit(ctx, f)
	})
	control.SetDisabled(coord.Busy())

	err = control.Handle(upload.Event{
		Type:  upload.ParseEventType(c.FormValue("source")),
		Files: []*models.SelectedFile{file},
	})

	switch {
	case errors.Is(err, upload.ErrInvalidFileType):
		h.metrics.UploadRefused(metrics.OutcomeRejected)
		h.logger.Info("upload rejected", "session", coord.ID(), "file", file.Name, "content_type", file.ContentType)
	case errors.Is(err, upload.ErrInputDisabled):
		h.metrics.UploadRefused(metrics.OutcomeBusy)
	}
	return err
}

func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
