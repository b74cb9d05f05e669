package testutil

import (
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"finitefield.org/chatthing-web/internal/content"
	"finitefield.org/chatthing-web/internal/httpserver"
	"finitefield.org/chatthing-web/internal/uistate"
	"finitefield.org/chatthing-web/internal/views"
)

// TestOrigin is allowed by the static asset CORS policy of test servers.
const TestOrigin = "https://chatthing.example"

// ServerOption customises the HTTP server configuration for tests.
type ServerOption func(*httpserver.Config)

// WithBasePath mounts the landing page under a custom base path.
func WithBasePath(path string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.BasePath = path
	}
}

// WithPolicy overrides how contract violations are handled.
func WithPolicy(policy uistate.Policy) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Policy = policy
	}
}

// WithEnvironment sets the environment label rendered into the page.
func WithEnvironment(label string) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Environment = label
	}
}

// WithCatalog replaces the embedded content catalog.
func WithCatalog(catalog *content.Catalog) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Catalog = catalog
	}
}

// WithViews shares a view store with the test so it can inspect state.
func WithViews(store *views.Store) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Views = store
	}
}

// WithLogger routes server logs to logger, e.g. one backed by zaptest/observer.
func WithLogger(logger *zap.Logger) ServerOption {
	return func(cfg *httpserver.Config) {
		cfg.Logger = logger
	}
}

// NewServer constructs an httptest server running the landing page stack with sensible defaults.
func NewServer(t testing.TB, opts ...ServerOption) *httptest.Server {
	t.Helper()

	cfg := httpserver.Config{
		Address:        ":0",
		BasePath:       "/",
		Environment:    "Development",
		Policy:         uistate.Strict,
		Catalog:        content.Default(),
		CSRFCookieName: "landing_csrf",
		CSRFHeaderName: "X-CSRF-Token",
		AllowedOrigins: []string{TestOrigin},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	srv, err := httpserver.New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}
