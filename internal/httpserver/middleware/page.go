package middleware

import (
	"context"
	"net/http"
	"path"
	"strings"

	"finitefield.org/chatthing-web/internal/uistate"
)

const defaultEnvironment = "Development"

type pageKey struct{}

// Page describes where and how the landing page is served.
type Page struct {
	BasePath    string
	Environment string
	// Policy decides whether widget contract violations are rejected.
	Policy uistate.Policy
}

// PageContext makes the page settings available to handlers and templates.
func PageContext(page Page) func(http.Handler) http.Handler {
	page.BasePath = NormaliseBase(page.BasePath)
	if page.Environment = strings.TrimSpace(page.Environment); page.Environment == "" {
		page.Environment = defaultEnvironment
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), pageKey{}, page)))
		})
	}
}

func pageFromContext(ctx context.Context) (Page, bool) {
	if ctx == nil {
		return Page{}, false
	}
	page, ok := ctx.Value(pageKey{}).(Page)
	return page, ok
}

// BasePathFromContext returns the mount point, "/" outside PageContext.
func BasePathFromContext(ctx context.Context) string {
	if page, ok := pageFromContext(ctx); ok {
		return page.BasePath
	}
	return "/"
}

// EnvironmentFromContext returns the environment label, "Development" outside PageContext.
func EnvironmentFromContext(ctx context.Context) string {
	if page, ok := pageFromContext(ctx); ok {
		return page.Environment
	}
	return defaultEnvironment
}

// PolicyFromContext returns the violation policy, Strict outside PageContext.
func PolicyFromContext(ctx context.Context) uistate.Policy {
	if page, ok := pageFromContext(ctx); ok {
		return page.Policy
	}
	return uistate.Strict
}

// JoinBase joins elem onto base, keeping a single leading slash.
func JoinBase(base string, elem ...string) string {
	return path.Join(append([]string{NormaliseBase(base)}, elem...)...)
}

// NormaliseBase maps "", "landing/" and " /landing " to "/" and "/landing".
func NormaliseBase(base string) string {
	base = strings.Trim(strings.TrimSpace(base), "/")
	if base == "" {
		return "/"
	}
	return "/" + base
}
