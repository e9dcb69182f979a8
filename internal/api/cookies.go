// cookies.go - Session identity and one-shot alert cookies
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/researchmate/webclient/internal/session"
	"github.com/researchmate/webclient/internal/upload"
)

const (
	// SessionCookie carries the browser's session ID.
	SessionCookie = "rm_session"
	// AlertCookie carries an alert code to show once on the next page render.
	AlertCookie = "rm_alert"
)

// Alert codes stored in AlertCookie.
const (
	alertInvalidType = "invalid_type"
	alertFailed      = "failed"
	alertBusy        = "busy"
)

var alertMessages = map[string]string{
	alertInvalidType: upload.InvalidTypeAlert,
	alertFailed:      session.FailureAlert,
	alertBusy:        "An upload is already in progress.",
}

func sessionIDFromCookie(c echo.Context) string {
	cookie, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setSessionCookie(c echo.Context, id string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func setAlertCookie(c echo.Context, code string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     AlertCookie,
		Value:    code,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// takeAlert returns the pending alert message, if any, and clears it.
func takeAlert(c echo.Context, secure bool) string {
	cookie, err := c.Cookie(AlertCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	c.SetCookie(&http.Cookie{
		Name:     AlertCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
	return alertMessages[cookie.Value]
}

// alertCodeFor picks the alert to flash for an API error.
func alertCodeFor(apiErr *APIError) string {
	switch apiErr.Code {
	case "INVALID_FILE_TYPE":
		return alertInvalidType
	case "CONFLICT":
		return alertBusy
	default:
		return alertFailed
	}
}
