package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"finitefield.org/chatthing-web/internal/httpx"
)

type csrfKey struct{}

// CSRFConfig controls the double-submit cookie. Widgets send the token back in
// HeaderName via hx-headers; plain form posts may use FieldName instead.
type CSRFConfig struct {
	CookieName string
	CookiePath string
	HeaderName string
	FieldName  string
	MaxAge     time.Duration
	Secure     bool
}

type csrfGuard struct {
	cookie http.Cookie
	header string
	field  string
}

func newCSRFGuard(cfg CSRFConfig) csrfGuard {
	g := csrfGuard{
		cookie: http.Cookie{
			Name:     cfg.CookieName,
			Path:     cfg.CookiePath,
			MaxAge:   int(cfg.MaxAge / time.Second),
			Secure:   cfg.Secure,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		},
		header: cfg.HeaderName,
		field:  cfg.FieldName,
	}
	if g.cookie.Name == "" {
		g.cookie.Name = "landing_csrf"
	}
	if g.cookie.Path == "" {
		g.cookie.Path = "/"
	}
	if g.cookie.MaxAge <= 0 {
		g.cookie.MaxAge = int((24 * time.Hour) / time.Second)
	}
	if g.header == "" {
		g.header = "X-CSRF-Token"
	}
	if g.field == "" {
		g.field = "csrf_token"
	}
	return g
}

// token returns the cookie's token, issuing a fresh one when absent.
func (g csrfGuard) token(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(g.cookie.Name); err == nil && c.Value != "" {
		return c.Value, nil
	}
	raw := securecookie.GenerateRandomKey(32)
	if raw == nil {
		return "", errors.New("csrf: generate token")
	}
	c := g.cookie
	c.Value = base64.RawURLEncoding.EncodeToString(raw)
	c.Secure = c.Secure || r.TLS != nil
	http.SetCookie(w, &c)
	return c.Value, nil
}

func (g csrfGuard) submitted(r *http.Request) string {
	if v := r.Header.Get(g.header); v != "" {
		return v
	}
	return r.PostFormValue(g.field)
}

// CSRF issues a token on every request and rejects state-changing requests
// whose submitted token does not match the cookie.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	guard := newCSRFGuard(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := guard.token(w, r)
			if err != nil {
				httpx.WriteError(r.Context(), w, httpx.NewError("csrf_unavailable", "could not issue csrf token", http.StatusInternalServerError))
				return
			}

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			default:
				got := guard.submitted(r)
				if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
					httpx.WriteError(r.Context(), w, httpx.NewError("csrf_mismatch", "missing or stale csrf token", http.StatusForbidden))
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfKey{}, token)))
		})
	}
}

// CSRFTokenFromContext returns the token the page embeds in hx-headers.
func CSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(csrfKey{}).(string)
	return token
}
