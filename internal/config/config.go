// Package config provides file-based configuration for the ResearchMate web client.
// XML is the native format; YAML is accepted for .yaml/.yml files.
package config

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAnalysisOrigin is where the analysis service listens unless configured otherwise.
const DefaultAnalysisOrigin = "http://localhost:8000"

// AppConfig represents the root configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"ResearchMate" yaml:"-"`

	Server          ServerConfig          `xml:"Server" yaml:"server"`
	AnalysisService AnalysisServiceConfig `xml:"AnalysisService" yaml:"analysis_service"`
	Session         SessionConfig         `xml:"Session" yaml:"session"`
	Security        SecurityConfig        `xml:"Security" yaml:"security"`
	Advanced        AdvancedConfig        `xml:"Advanced" yaml:"advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port" yaml:"port"`
	BindAddress  string `xml:"BindAddress" yaml:"bind_address"`
	EnableCORS   bool   `xml:"EnableCORS" yaml:"enable_cors"`
	AllowOrigins string `xml:"AllowOrigins" yaml:"allow_origins"`

	// RequestTimeout bounds every route except /upload, which waits on the
	// analysis service for as long as it takes.
	RequestTimeout    int    `xml:"RequestTimeoutSeconds" yaml:"request_timeout_seconds"`
	ReadHeaderTimeout int    `xml:"ReadHeaderTimeoutSeconds" yaml:"read_header_timeout_seconds"`
	IdleTimeout       int    `xml:"IdleTimeoutSeconds" yaml:"idle_timeout_seconds"`
	BodyLimit         string `xml:"BodyLimit" yaml:"body_limit"`
}

// AnalysisServiceConfig locates the remote analysis backend. Origin is used
// both for uploads and for building download links.
type AnalysisServiceConfig struct {
	Origin string `xml:"Origin" yaml:"origin"`
}

// SessionConfig controls how long browser sessions are kept in memory
type SessionConfig struct {
	TimeoutMinutes         int `xml:"TimeoutMinutes" yaml:"timeout_minutes"`
	CleanupIntervalMinutes int `xml:"CleanupIntervalMinutes" yaml:"cleanup_interval_minutes"`
	MaxSessions            int `xml:"MaxSessions" yaml:"max_sessions"`
}

// SecurityConfig contains request limiting settings
type SecurityConfig struct {
	UploadsPerSecond float64 `xml:"UploadsPerSecond" yaml:"uploads_per_second"`
	UploadBurst      int     `xml:"UploadBurst" yaml:"upload_burst"`
	SecureCookies    bool    `xml:"SecureCookies" yaml:"secure_cookies"`
}

// AdvancedConfig contains logging and tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel" yaml:"log_level"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging" yaml:"enable_request_logging"`
	EnableCompression    bool   `xml:"EnableCompression" yaml:"enable_compression"`
	CompressionLevel     int    `xml:"CompressionLevel" yaml:"compression_level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:              8089,
			BindAddress:       "0.0.0.0",
			EnableCORS:        false,
			AllowOrigins:      "",
			RequestTimeout:    30,
			ReadHeaderTimeout: 10,
			IdleTimeout:       120,
			BodyLimit:         "50M",
		},
		AnalysisService: AnalysisServiceConfig{
			Origin: DefaultAnalysisOrigin,
		},
		Session: SessionConfig{
			TimeoutMinutes:         60,
			CleanupIntervalMinutes: 5,
			MaxSessions:            1000,
		},
		Security: SecurityConfig{
			UploadsPerSecond: 1,
			UploadBurst:      5,
			SecureCookies:    false,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			EnableCompression:    true,
			CompressionLevel:     5,
		},
	}
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment. A missing file is not an error; existing variables win.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads configuration from an XML or YAML file, writing the
// defaults there first if the file does not exist.
func LoadConfig(configPath string) (*AppConfig, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		if err := config.Validate(); err != nil {
			return nil, err
		}
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(configPath) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = xml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyEnvironmentOverrides()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration in the format implied by the file extension
func (c *AppConfig) Save(configPath string) error {
	var content []byte
	if isYAML(configPath) {
		output, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		header := []byte("# ResearchMate web client configuration\n# This file is auto-generated on first run\n\n")
		content = append(header, output...)
	} else {
		output, err := xml.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		header := []byte(xml.Header + "\n<!-- ResearchMate web client configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
		content = append(header, output...)
	}

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks values that would otherwise fail later at startup
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	origin := strings.TrimSpace(c.AnalysisService.Origin)
	if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
		return fmt.Errorf("invalid analysis service origin: %q", c.AnalysisService.Origin)
	}
	if c.Session.TimeoutMinutes <= 0 {
		return fmt.Errorf("invalid session timeout: %d minutes", c.Session.TimeoutMinutes)
	}
	if c.Session.CleanupIntervalMinutes <= 0 {
		return fmt.Errorf("invalid session cleanup interval: %d minutes", c.Session.CleanupIntervalMinutes)
	}
	if c.Server.RequestTimeout < 0 || c.Server.ReadHeaderTimeout < 0 || c.Server.IdleTimeout < 0 {
		return errors.New("server timeouts must not be negative")
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if origin := os.Getenv("ANALYSIS_ORIGIN"); origin != "" {
		c.AnalysisService.Origin = origin
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// GetAnalysisOrigin returns the analysis service origin without a trailing slash
func (c *AppConfig) GetAnalysisOrigin() string {
	return strings.TrimRight(strings.TrimSpace(c.AnalysisService.Origin), "/")
}

// GetAllowOrigins splits the comma-separated CORS origins
func (c *AppConfig) GetAllowOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.Server.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
