// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// PageHandler renders the single page for the caller's session
type PageHandler interface {
	HandleIndex(c echo.Context) error
	HandleReset(c echo.Context) error
}

// UploadHandler handles manuscript uploads
type UploadHandler interface {
	HandleUpload(c echo.Context) error
}

// StateHandler exposes the session state to scripts
type StateHandler interface {
	HandleGetState(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
