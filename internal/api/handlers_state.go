// handlers_state.go - Session state snapshot handler
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/researchmate/webclient/internal/session"
	"github.com/vmihailenco/msgpack/v5"
)

// MIMEApplicationMsgpack is the content type for MessagePack responses
const MIMEApplicationMsgpack = "application/msgpack"

// StateHandlerImpl implements the StateHandler interface
type StateHandlerImpl struct {
	sessions      *session.Manager
	secureCookies bool
}

// NewStateHandler creates a new state handler
func NewStateHandler(sessions *session.Manager, secureCookies bool) StateHandler {
	return &StateHandlerImpl{sessions: sessions, secureCookies: secureCookies}
}

// HandleGetState returns the caller's session state as JSON, or as
// MessagePack when the client asks for it
func (h *StateHandlerImpl) HandleGetState(c echo.Context) error {
	coord := h.sessions.GetOrCreate(sessionIDFromCookie(c))
	setSessionCookie(c, coord.ID(), h.secureCookies)
	state := coord.State()

	c.Response().Header().Set("Cache-Control", "no-store")
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), MIMEApplicationMsgpack) {
		data, err := msgpack.Marshal(state)
		if err != nil {
			return NewInternalError("failed to encode msgpack", err)
		}
		return c.Blob(http.StatusOK, MIMEApplicationMsgpack, data)
	}
	return c.JSON(http.StatusOK, state)
}
