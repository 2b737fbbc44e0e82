package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Extraction ExtractionConfig
	Server     ServerConfig
	Log        LogConfig
	Tracing    TracingConfig
}

type ExtractionConfig struct {
	SnippetLength     int
	Workers           int
	PdftotextFallback bool
}

type ServerConfig struct {
	Host           string
	Port           int
	MaxUploadMB    int
	MetricsEnabled bool
}

type LogConfig struct {
	Level  string
	Format string
}

// TracingConfig controls span export. Spans go to stderr when enabled.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
}

// Load reads .env files when present, then environment variables. With no
// files given it looks for ".env" in the working directory.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Extraction: ExtractionConfig{
			SnippetLength:     getEnvAsInt("STATEMENT_SNIPPET_LENGTH", 1200),
			Workers:           getEnvAsInt("STATEMENT_WORKERS", 4),
			PdftotextFallback: getEnvAsBool("PDFTOTEXT_FALLBACK", true),
		},
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			MaxUploadMB:    getEnvAsInt("MAX_UPLOAD_MB", 32),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("TRACING_ENABLED", false),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "card-statement-parser"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Extraction.SnippetLength < 0 {
		return errors.New("STATEMENT_SNIPPET_LENGTH must not be negative")
	}
	if c.Extraction.Workers < 1 {
		return errors.New("STATEMENT_WORKERS must be at least 1")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 1 {
		return errors.New("MAX_UPLOAD_MB must be at least 1")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SlogLevel maps the configured level name to a slog level, defaulting to info.
func (c *LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
