// Package config loads service settings from the environment.
package config

import (
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/rawblock/cmgen/internal/labels"
	"github.com/rawblock/cmgen/internal/render"
)

// Config holds every runtime setting. Values come from environment variables,
// optionally seeded from a .env file, and may be overridden by CLI flags.
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
	AuthToken      string

	RateLimitPerMin int
	RateLimitBurst  int

	MaxUploadBytes  int64
	MaxClasses      int
	ImageDPI        int
	InputPrecedence labels.Precedence
}

const (
	defaultPort           = "5339"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultRatePerMin     = 30
	defaultRateBurst      = 10
	defaultMaxUploadBytes = 10 << 20
	defaultMaxClasses     = 100
	defaultImageDPI       = 100
)

// LoadEnvFile seeds the process environment from path. Variables already set win.
// A missing file is not an error unless required is true.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && !required && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return errors.Wrapf(err, "loading %s", path)
}

// Load reads the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvOrDefault("PORT", defaultPort),
		GinMode:        os.Getenv("GIN_MODE"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", defaultLogFormat),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		AuthToken:      os.Getenv("API_AUTH_TOKEN"),
	}

	var err error
	if cfg.RateLimitPerMin, err = intEnv("RATE_LIMIT_PER_MIN", defaultRatePerMin); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = intEnv("RATE_LIMIT_BURST", defaultRateBurst); err != nil {
		return nil, err
	}
	if cfg.MaxClasses, err = intEnv("MAX_CLASSES", defaultMaxClasses); err != nil {
		return nil, err
	}
	if cfg.ImageDPI, err = intEnv("IMAGE_DPI", defaultImageDPI); err != nil {
		return nil, err
	}
	maxUpload, err := intEnv("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)
	if err != nil {
		return nil, err
	}
	cfg.MaxUploadBytes = int64(maxUpload)

	if cfg.InputPrecedence, err = labels.ParsePrecedence(os.Getenv("INPUT_PRECEDENCE")); err != nil {
		return nil, errors.Wrap(err, "INPUT_PRECEDENCE")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if _, err := strconv.ParseUint(c.Port, 10, 16); err != nil || c.Port == "0" {
		return errors.Errorf("invalid PORT %q", c.Port)
	}
	checks := []struct {
		name  string
		value int64
	}{
		{"RATE_LIMIT_PER_MIN", int64(c.RateLimitPerMin)},
		{"RATE_LIMIT_BURST", int64(c.RateLimitBurst)},
		{"MAX_UPLOAD_BYTES", c.MaxUploadBytes},
		{"MAX_CLASSES", int64(c.MaxClasses)},
		{"IMAGE_DPI", int64(c.ImageDPI)},
	}
	for _, chk := range checks {
		if chk.value <= 0 {
			return errors.Errorf("%s must be positive, got %d", chk.name, chk.value)
		}
	}
	return nil
}

// RenderOptions is the default figure configuration for this deployment.
func (c *Config) RenderOptions() render.Options {
	opts := render.DefaultOptions()
	opts.DPI = c.ImageDPI
	return opts
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
