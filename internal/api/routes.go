// routes.go - Route registration and middleware setup
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/researchmate/webclient/internal/metrics"
	"github.com/researchmate/webclient/internal/session"
	"github.com/researchmate/webclient/internal/web"
	"golang.org/x/time/rate"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Sessions      *session.Manager
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	DownloadURL   web.URLBuilder
	AnalysisURL   string
	Version       string
	SecureCookies bool
}

// Handlers holds all handler instances
type Handlers struct {
	Page   PageHandler
	Upload UploadHandler
	State  StateHandler
	Health HealthHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Page:   NewPageHandler(deps.Sessions, deps.DownloadURL, deps.SecureCookies),
		Upload: NewUploadHandler(deps.Sessions, deps.Metrics, deps.Logger, deps.SecureCookies),
		State:  NewStateHandler(deps.Sessions, deps.SecureCookies),
		Health: NewHealthHandler(deps.Version, deps.AnalysisURL),
	}
}

// MiddlewareConfig tunes the common middleware stack
type MiddlewareConfig struct {
	Debug            bool
	RequestLogging   bool
	RequestTimeout   time.Duration
	BodyLimit        string
	EnableGzip       bool
	GzipLevel        int
	AllowOrigins     []string
	UploadsPerSecond float64
	UploadBurst      int
}

// RegisterRoutes registers the page, upload and API routes
func RegisterRoutes(e *echo.Echo, handlers *Handlers, m *metrics.Metrics, uploadLimiter echo.MiddlewareFunc) error {
	e.GET("/", handlers.Page.HandleIndex)
	e.POST("/reset", handlers.Page.HandleReset)

	if uploadLimiter != nil {
		e.POST("/upload", handlers.Upload.HandleUpload, uploadLimiter)
	} else {
		e.POST("/upload", handlers.Upload.HandleUpload)
	}

	apiGroup := e.Group("/api")
	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.GET("/state", handlers.State.HandleGetState)

	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	return web.RegisterStaticRoutes(e)
}

// SetupMiddleware configures common middleware and returns the rate limiter
// to attach to the upload route, or nil when limiting is disabled
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) echo.MiddlewareFunc {
	e.HTTPErrorHandler = NewErrorHandler(cfg.Debug)

	e.Use(middleware.RequestID())

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.RequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" ||
				path == "/metrics" ||
				strings.HasPrefix(path, "/static/")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self'; style-src 'self'; object-src 'none'; frame-ancestors 'none'",
	}))

	if cfg.RequestTimeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: cfg.RequestTimeout,
			// Uploads wait on the analysis service for as long as it takes.
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == "/upload"
			},
			ErrorMessage: "Request timeout",
		}))
	}

	if cfg.EnableGzip {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.GzipLevel,
			Skipper: func(c echo.Context) bool {
				return c.Request().URL.Path == "/metrics"
			},
		}))
	}

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if len(cfg.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.AllowOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			AllowCredentials: true,
		}))
	}

	if cfg.UploadsPerSecond <= 0 {
		return nil
	}
	burst := cfg.UploadBurst
	if burst <= 0 {
		burst = 1
	}
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.UploadsPerSecond),
		Burst:     burst,
		ExpiresIn: 5 * time.Minute,
	})
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			if id := sessionIDFromCookie(c); id != "" {
				return id, nil
			}
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return &APIError{
				Status:  http.StatusTooManyRequests,
				Code:    "RATE_LIMITED",
				Message: "Too many uploads, please wait a moment.",
			}
		},
	})
}
