// Package config loads the landing page server configuration from defaults,
// an optional YAML file, CHATTHING_WEB_* environment variables and flags.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"finitefield.org/chatthing-web/internal/observability"
	"finitefield.org/chatthing-web/internal/uistate"
	"finitefield.org/chatthing-web/internal/views"
)

// Policy names accepted by mode.policy.
const (
	PolicyAuto    = "auto"
	PolicyStrict  = "strict"
	PolicyLenient = "lenient"
)

// defaultEnvironment applies when mode.environment is unset. It resolves to
// the lenient policy; development setups opt into strict with
// --environment=development or CHATTHING_WEB_MODE_ENVIRONMENT.
const defaultEnvironment = "production"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid")

// Config holds all server configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Content ContentConfig `koanf:"content"`
	Views   ViewsConfig   `koanf:"views"`
	Log     LogConfig     `koanf:"log"`
	Mode    ModeConfig    `koanf:"mode"`
	CORS    CORSConfig    `koanf:"cors"`
	CSRF    CSRFConfig    `koanf:"csrf"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	BasePath        string        `koanf:"base_path"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ContentConfig points at a catalog YAML file; empty uses the embedded one.
type ContentConfig struct {
	Path string `koanf:"path"`
}

// ViewsConfig controls page view lifetime. Keys are hex encoded.
type ViewsConfig struct {
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	Lifetime        time.Duration `koanf:"lifetime"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	MaxViews        int           `koanf:"max_views"`
	HashKey         string        `koanf:"hash_key"`
	BlockKey        string        `koanf:"block_key"`
}

type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
}

// ModeConfig selects the environment label and violation policy. Policy
// "auto" derives it from the environment.
type ModeConfig struct {
	Environment string `koanf:"environment"`
	Policy      string `koanf:"policy"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type CSRFConfig struct {
	CookieName string `koanf:"cookie_name"`
	HeaderName string `koanf:"header_name"`
	Secure     bool   `koanf:"secure"`
}

// Defaults is the lowest configuration layer.
func Defaults() map[string]any {
	return map[string]any{
		"server.addr":             ":8080",
		"server.base_path":        "/",
		"server.read_timeout":     "15s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "60s",
		"server.request_timeout":  "30s",
		"server.shutdown_timeout": "10s",
		"content.path":            "",
		"views.idle_timeout":      "2h",
		"views.lifetime":          "24h",
		"views.cleanup_interval":  "10m",
		"views.max_views":         10000,
		"views.hash_key":          "",
		"views.block_key":         "",
		"log.level":               "info",
		"log.format":              "json",
		"log.file":                "",
		"log.max_size_mb":         10,
		"log.max_backups":         5,
		"log.max_age_days":        30,
		"mode.environment":        defaultEnvironment,
		"mode.policy":             PolicyAuto,
		"cors.allowed_origins":    []string{"*"},
		"csrf.cookie_name":        "landing_csrf",
		"csrf.header_name":        "X-CSRF-Token",
		"csrf.secure":             false,
	}
}

// Validate checks the loaded configuration. All problems are reported at once.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		invalid("server.addr is required")
	}
	if bp := c.Server.BasePath; bp != "" && !strings.HasPrefix(bp, "/") {
		invalid("server.base_path %q must start with /", bp)
	}
	for name, d := range map[string]time.Duration{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.idle_timeout":     c.Server.IdleTimeout,
		"server.request_timeout":  c.Server.RequestTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"views.idle_timeout":      c.Views.IdleTimeout,
		"views.lifetime":          c.Views.Lifetime,
		"views.cleanup_interval":  c.Views.CleanupInterval,
	} {
		if d < 0 {
			invalid("%s must not be negative", name)
		}
	}
	if c.Views.MaxViews <= 0 {
		invalid("views.max_views must be positive, got %d", c.Views.MaxViews)
	}
	if _, err := decodeKey(c.Views.HashKey); err != nil {
		invalid("views.hash_key: %v", err)
	}
	if key, err := decodeKey(c.Views.BlockKey); err != nil {
		invalid("views.block_key: %v", err)
	} else if n := len(key); n != 0 && n != 16 && n != 24 && n != 32 {
		invalid("views.block_key must decode to 16, 24 or 32 bytes, got %d", n)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "json", "console":
	default:
		invalid("log.format %q must be json or console", c.Log.Format)
	}
	switch strings.ToLower(c.Mode.Policy) {
	case "", PolicyAuto, PolicyStrict, PolicyLenient:
	default:
		invalid("mode.policy %q must be auto, strict or lenient", c.Mode.Policy)
	}
	if strings.TrimSpace(c.CSRF.CookieName) == "" {
		invalid("csrf.cookie_name is required")
	}
	if strings.TrimSpace(c.CSRF.HeaderName) == "" {
		invalid("csrf.header_name is required")
	}

	return errors.Join(errs...)
}

// Policy resolves mode.policy, falling back to the environment's default.
func (c *Config) Policy() uistate.Policy {
	switch strings.ToLower(c.Mode.Policy) {
	case PolicyStrict:
		return uistate.Strict
	case PolicyLenient:
		return uistate.Lenient
	default:
		return uistate.PolicyFor(c.environment())
	}
}

func (c *Config) environment() string {
	if env := strings.TrimSpace(c.Mode.Environment); env != "" {
		return env
	}
	return defaultEnvironment
}

// EnvironmentLabel is the environment name as shown in the page, e.g. "Production".
func (c *Config) EnvironmentLabel() string {
	return cases.Title(language.English).String(c.environment())
}

func (c *Config) LoggerConfig() observability.LogConfig {
	return observability.LogConfig{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// StoreConfig converts the views section for views.NewStore.
func (c *Config) StoreConfig() (views.Config, error) {
	hashKey, err := decodeKey(c.Views.HashKey)
	if err != nil {
		return views.Config{}, fmt.Errorf("views.hash_key: %w", err)
	}
	blockKey, err := decodeKey(c.Views.BlockKey)
	if err != nil {
		return views.Config{}, fmt.Errorf("views.block_key: %w", err)
	}
	return views.Config{
		IdleTimeout:     c.Views.IdleTimeout,
		Lifetime:        c.Views.Lifetime,
		CleanupInterval: c.Views.CleanupInterval,
		MaxViews:        c.Views.MaxViews,
		HashKey:         hashKey,
		BlockKey:        blockKey,
	}, nil
}

func decodeKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	return hex.DecodeString(raw)
}
