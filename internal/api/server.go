// server.go - HTTP server construction
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// ServerConfig holds the connection-level limits for NewServer
type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
}

// NewServer wraps e in an http.Server. ReadTimeout and WriteTimeout stay
// unset so an upload may take as long as the analysis service needs; the
// Timeout middleware bounds every other route.
func NewServer(e *echo.Echo, cfg ServerConfig) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           e,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    1 << 20,
	}
}
