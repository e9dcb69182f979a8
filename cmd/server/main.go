package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/researchmate/webclient/internal/analysis"
	"github.com/researchmate/webclient/internal/api"
	"github.com/researchmate/webclient/internal/config"
	"github.com/researchmate/webclient/internal/logging"
	"github.com/researchmate/webclient/internal/metrics"
	"github.com/researchmate/webclient/internal/session"
	"github.com/researchmate/webclient/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "researchmate-web"

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Printf("Warning: %v\n", err)
	}

	configPath := os.Getenv("RESEARCHMATE_CONFIG")
	if configPath == "" {
		configPath = filepath.Join(exeDir, "ResearchMate.config")
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(serviceName, cfg.Advanced.LogLevel)
	m := metrics.New(serviceName)

	client := analysis.NewClient(cfg.GetAnalysisOrigin(), nil, logger)
	sessionMgr := session.NewManagerWithLimit(client, logger, m, cfg.Session.MaxSessions)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background session cleanup
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Session.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := sessionMgr.CleanupOldSessions(time.Duration(cfg.Session.TimeoutMinutes) * time.Minute); n > 0 {
					logger.Debug("expired sessions removed", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	e := echo.New()
	e.HideBanner = true

	renderer, err := web.NewRenderer()
	if err != nil {
		fmt.Printf("Failed to load templates: %v\n", err)
		os.Exit(1)
	}
	e.Renderer = renderer

	var allowOrigins []string
	if cfg.Server.EnableCORS {
		allowOrigins = cfg.GetAllowOrigins()
		if len(allowOrigins) == 0 {
			allowOrigins = []string{"*"}
		}
	}

	uploadLimiter := api.SetupMiddleware(e, api.MiddlewareConfig{
		Debug:            cfg.Advanced.LogLevel == "debug",
		RequestLogging:   cfg.Advanced.EnableRequestLogging,
		RequestTimeout:   time.Duration(cfg.Server.RequestTimeout) * time.Second,
		BodyLimit:        cfg.Server.BodyLimit,
		EnableGzip:       cfg.Advanced.EnableCompression,
		GzipLevel:        cfg.Advanced.CompressionLevel,
		AllowOrigins:     allowOrigins,
		UploadsPerSecond: cfg.Security.UploadsPerSecond,
		UploadBurst:      cfg.Security.UploadBurst,
	})

	handlers := api.NewHandlers(&api.Dependencies{
		Sessions:      sessionMgr,
		Metrics:       m,
		Logger:        logger,
		DownloadURL:   client.DownloadURL,
		AnalysisURL:   client.Origin(),
		Version:       Version,
		SecureCookies: cfg.Security.SecureCookies,
	})
	if err := api.RegisterRoutes(e, handlers, m, uploadLimiter); err != nil {
		fmt.Printf("Failed to register routes: %v\n", err)
		os.Exit(1)
	}

	// Configure server with settings from config
	s := api.NewServer(e, api.ServerConfig{
		Addr:              cfg.GetServerAddr(),
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadHeaderTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.Server.IdleTimeout) * time.Second,
	})

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           ResearchMate Web Client                         ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Analysis:  %-46s║\n", client.Origin())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	go func() {
		logger.Info("server starting", "version", Version, "addr", s.Addr, "analysis_origin", client.Origin())
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated", "timeout", "10s")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
