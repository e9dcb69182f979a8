// handlers_page.go - Page rendering and reset handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/researchmate/webclient/internal/session"
	"github.com/researchmate/webclient/internal/web"
)

// PageHandlerImpl implements the PageHandler interface
type PageHandlerImpl struct {
	sessions      *session.Manager
	buildURL      web.URLBuilder
	secureCookies bool
}

// NewPageHandler creates a new page handler
func NewPageHandler(sessions *session.Manager, buildURL web.URLBuilder, secureCookies bool) PageHandler {
	return &PageHandlerImpl{
		sessions:      sessions,
		buildURL:      buildURL,
		secureCookies: secureCookies,
	}
}

// HandleIndex renders the upload view or the review view for the session
func (h *PageHandlerImpl) HandleIndex(c echo.Context) error {
	coord := h.sessions.GetOrCreate(sessionIDFromCookie(c))
	setSessionCookie(c, coord.ID(), h.secureCookies)

	alert := takeAlert(c, h.secureCookies)
	page := web.NewPage(coord.State(), h.buildURL, alert)

	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Render(http.StatusOK, web.PageTemplate, page)
}

// HandleReset clears the analysis and returns to the upload view
func (h *PageHandlerImpl) HandleReset(c echo.Context) error {
	if coord, ok := h.sessions.Get(sessionIDFromCookie(c)); ok {
		coord.Reset()
	}

	if wantsJSON(c) {
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}
