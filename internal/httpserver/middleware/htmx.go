package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type htmxKey struct{}

// HTMXRequest is what the fragment handlers read from HX-* request headers.
type HTMXRequest struct {
	// Target is the id of the element that will be swapped, e.g. "faq-list".
	Target     string
	Trigger    string
	CurrentURL string
}

// HTMX records htmx requests in the context. Non-htmx requests pass through
// untouched. Responses vary on HX-Request since the same URL can answer with
// a fragment or a refusal.
func HTMX() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "HX-Request")
			if !strings.EqualFold(r.Header.Get("HX-Request"), "true") {
				next.ServeHTTP(w, r)
				return
			}
			req := HTMXRequest{
				Target:     r.Header.Get("HX-Target"),
				Trigger:    r.Header.Get("HX-Trigger"),
				CurrentURL: r.Header.Get("HX-Current-URL"),
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), htmxKey{}, req)))
		})
	}
}

// HTMXFromContext reports the htmx headers of the current request, if any.
func HTMXFromContext(ctx context.Context) (HTMXRequest, bool) {
	req, ok := ctx.Value(htmxKey{}).(HTMXRequest)
	return req, ok
}

// RequireHTMX hides fragment routes from plain navigation with a 404.
func RequireHTMX() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := HTMXFromContext(r.Context()); !ok {
				http.NotFound(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TriggerEvent sets HX-Trigger so the client dispatches name with detail once
// the response is processed.
func TriggerEvent(w http.ResponseWriter, name string, detail any) error {
	payload, err := json.Marshal(map[string]any{name: detail})
	if err != nil {
		return err
	}
	w.Header().Set("HX-Trigger", string(payload))
	return nil
}

// Refresh asks htmx to reload the whole page.
func Refresh(w http.ResponseWriter) {
	w.Header().Set("HX-Refresh", "true")
}

// NoStore keeps page views and their fragments out of browser and proxy caches.
func NoStore() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Cache-Control", "no-store, max-age=0")
			h.Set("Pragma", "no-cache")
			next.ServeHTTP(w, r)
		})
	}
}
