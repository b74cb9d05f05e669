package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"finitefield.org/chatthing-web/internal/content"
	custommw "finitefield.org/chatthing-web/internal/httpserver/middleware"
	"finitefield.org/chatthing-web/internal/httpserver/ui"
	"finitefield.org/chatthing-web/internal/observability"
	"finitefield.org/chatthing-web/internal/templates"
	"finitefield.org/chatthing-web/internal/uistate"
	"finitefield.org/chatthing-web/internal/views"
	"finitefield.org/chatthing-web/public"
)

// Config holds runtime options for the landing page server.
type Config struct {
	Address     string
	BasePath    string
	Environment string
	Policy      uistate.Policy

	Logger   *zap.Logger
	Catalog  *content.Catalog
	Views    *views.Store
	Renderer *templates.Renderer

	CSRFCookieName   string
	CSRFHeaderName   string
	CSRFCookieSecure bool

	AllowedOrigins []string

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// New constructs the HTTP server with middleware stack and embedded assets.
func New(cfg Config) (*http.Server, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("httpserver: catalog is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := cfg.Views
	if store == nil {
		var err error
		if store, err = views.NewStore(views.Config{}); err != nil {
			return nil, fmt.Errorf("httpserver: view store: %w", err)
		}
	}
	renderer := cfg.Renderer
	if renderer == nil {
		var err error
		if renderer, err = templates.New(); err != nil {
			return nil, fmt.Errorf("httpserver: %w", err)
		}
	}
	assets, err := public.Handler()
	if err != nil {
		return nil, fmt.Errorf("httpserver: embed static: %w", err)
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.InjectLoggerMiddleware(logger))
	router.Use(observability.TracingMiddleware())
	router.Use(observability.RequestLoggerMiddleware())
	router.Use(observability.RecoverMiddleware())
	router.Use(chimw.Timeout(durationOr(cfg.RequestTimeout, 30*time.Second)))
	router.Use(chimw.Compress(5))

	basePath := custommw.NormaliseBase(cfg.BasePath)

	router.Get(custommw.JoinBase(basePath, "healthz"), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	staticPrefix := custommw.JoinBase(basePath, "public", "static") + "/"
	router.With(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead},
		MaxAge:         300,
	})).Handle(staticPrefix+"*", http.StripPrefix(staticPrefix, assets))

	handlers := ui.NewHandlers(ui.Dependencies{
		Catalog:    cfg.Catalog,
		Views:      store,
		Renderer:   renderer,
		CSRFHeader: cfg.CSRFHeaderName,
	})

	mountLandingRoutes(router, handlers, routeOptions{
		Page: custommw.Page{
			BasePath:    basePath,
			Environment: cfg.Environment,
			Policy:      cfg.Policy,
		},
		CSRF: custommw.CSRFConfig{
			CookieName: cfg.CSRFCookieName,
			CookiePath: basePath,
			HeaderName: cfg.CSRFHeaderName,
			Secure:     cfg.CSRFCookieSecure,
		},
	})

	return &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       durationOr(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      durationOr(cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:       durationOr(cfg.IdleTimeout, 60*time.Second),
	}, nil
}

type routeOptions struct {
	Page custommw.Page
	CSRF custommw.CSRFConfig
}

func mountLandingRoutes(router chi.Router, h *ui.Handlers, opts routeOptions) {
	base := opts.Page.BasePath
	landing := func(r chi.Router) {
		r.Use(custommw.PageContext(opts.Page))
		r.Use(custommw.HTMX())
		r.Use(custommw.NoStore())
		r.Use(custommw.CSRF(opts.CSRF))
	}

	if base != "/" {
		router.Group(func(r chi.Router) {
			landing(r)
			r.Get(base, h.Page)
		})
	}

	router.Route(base, func(r chi.Router) {
		landing(r)

		r.Get("/", h.Page)
		r.Route("/views/{handle}", func(r chi.Router) {
			r.Use(custommw.RequireHTMX())
			r.Post("/nav/open", h.NavOpen)
			r.Post("/nav/close", h.NavClose)
			r.Post("/nav/entries/{index}", h.NavEntry)
			r.Post("/pricing/{index}", h.PricingSelect)
			r.Post("/faq/{index}/toggle", h.FAQToggle)
			r.Post("/chat/toggle", h.ChatToggle)
			r.Post("/chat/show", h.ChatShow)
			r.Post("/chat/hide", h.ChatHide)
		})
	})
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
