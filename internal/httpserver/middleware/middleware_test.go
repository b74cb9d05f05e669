package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/chatthing-web/internal/uistate"
)

func serve(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request, h http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	if h == nil {
		h = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	}
	rr := httptest.NewRecorder()
	mw(h).ServeHTTP(rr, req)
	return rr
}

func csrfPost(target, cookie, header string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "csrf", Value: cookie})
	}
	if header != "" {
		req.Header.Set("X-CSRF-Token", header)
	}
	return req
}

func TestCSRFIssuesTokenOnPageLoad(t *testing.T) {
	mw := CSRF(CSRFConfig{CookieName: "csrf"})

	var seen string
	rr := serve(t, mw, httptest.NewRequest(http.MethodGet, "/", nil), func(w http.ResponseWriter, r *http.Request) {
		seen = CSRFTokenFromContext(r.Context())
	})

	require.NotEmpty(t, seen)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "csrf", cookies[0].Name)
	require.Equal(t, seen, cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
}

func TestCSRFReusesExistingCookie(t *testing.T) {
	mw := CSRF(CSRFConfig{CookieName: "csrf"})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "csrf", Value: "token"})

	var seen string
	rr := serve(t, mw, req, func(w http.ResponseWriter, r *http.Request) {
		seen = CSRFTokenFromContext(r.Context())
	})
	require.Equal(t, "token", seen)
	require.Empty(t, rr.Result().Cookies())
}

func TestCSRFGuardsEventPosts(t *testing.T) {
	mw := CSRF(CSRFConfig{CookieName: "csrf"})

	cases := []struct {
		name   string
		cookie string
		header string
		want   int
	}{
		{name: "missing token", cookie: "token", want: http.StatusForbidden},
		{name: "mismatched token", cookie: "token", header: "other", want: http.StatusForbidden},
		{name: "missing cookie", header: "token", want: http.StatusForbidden},
		{name: "matching token", cookie: "token", header: "token", want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := serve(t, mw, csrfPost("/views/x/nav/open", tc.cookie, tc.header), nil)
			require.Equal(t, tc.want, rr.Code)
		})
	}
}

func TestCSRFAcceptsFormField(t *testing.T) {
	mw := CSRF(CSRFConfig{CookieName: "csrf"})

	form := url.Values{"csrf_token": {"token"}}
	req := httptest.NewRequest(http.MethodPost, "/views/x/chat/show", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf", Value: "token"})

	rr := serve(t, mw, req, nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestHTMXRecordsHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/views/x/faq/0/toggle", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Target", "faq-list")
	req.Header.Set("HX-Trigger", "faq-1")

	var got HTMXRequest
	var ok bool
	rr := serve(t, HTMX(), req, func(w http.ResponseWriter, r *http.Request) {
		got, ok = HTMXFromContext(r.Context())
	})

	require.True(t, ok)
	require.Equal(t, HTMXRequest{Target: "faq-list", Trigger: "faq-1"}, got)
	require.Equal(t, "HX-Request", rr.Header().Get("Vary"))
}

func TestRequireHTMX(t *testing.T) {
	mw := func(next http.Handler) http.Handler { return HTMX()(RequireHTMX()(next)) }

	rr := serve(t, mw, httptest.NewRequest(http.MethodPost, "/views/x/faq/0/toggle", nil), nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/views/x/faq/0/toggle", nil)
	req.Header.Set("HX-Request", "true")
	rr = serve(t, mw, req, nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestResponseHelpers(t *testing.T) {
	rr := httptest.NewRecorder()
	require.NoError(t, TriggerEvent(rr, "landing:navigate", map[string]string{"href": "#faq"}))
	require.JSONEq(t, `{"landing:navigate":{"href":"#faq"}}`, rr.Header().Get("HX-Trigger"))

	Refresh(rr)
	require.Equal(t, "true", rr.Header().Get("HX-Refresh"))

	rr = serve(t, NoStore(), httptest.NewRequest(http.MethodGet, "/", nil), nil)
	require.Equal(t, "no-store, max-age=0", rr.Header().Get("Cache-Control"))
	require.Equal(t, "no-cache", rr.Header().Get("Pragma"))
}

func TestPageContextDefaults(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, "/", BasePathFromContext(ctx))
	require.Equal(t, "Development", EnvironmentFromContext(ctx))
	require.Equal(t, uistate.Strict, PolicyFromContext(ctx))

	var base, env string
	var policy uistate.Policy
	serve(t, PageContext(Page{BasePath: "landing/", Environment: "Production", Policy: uistate.Lenient}),
		httptest.NewRequest(http.MethodGet, "/landing", nil),
		func(w http.ResponseWriter, r *http.Request) {
			base = BasePathFromContext(r.Context())
			env = EnvironmentFromContext(r.Context())
			policy = PolicyFromContext(r.Context())
		})

	require.Equal(t, "/landing", base)
	require.Equal(t, "Production", env)
	require.Equal(t, uistate.Lenient, policy)
}

func TestBasePathHelpers(t *testing.T) {
	for in, want := range map[string]string{
		"":         "/",
		"/":        "/",
		"landing/": "/landing",
		" /a/ ":    "/a",
		"//a/b//":  "/a/b",
	} {
		require.Equal(t, want, NormaliseBase(in), in)
	}
	require.Equal(t, "/views/abc/nav/open", JoinBase("/", "views", "abc", "nav", "open"))
	require.Equal(t, "/landing/healthz", JoinBase("/landing/", "healthz"))
}
