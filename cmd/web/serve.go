package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finitefield.org/chatthing-web/internal/httpserver"
	"finitefield.org/chatthing-web/internal/views"
)

func newServeCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the landing page over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd, *cfgFile)
			if err != nil {
				return err
			}
			defer func() { _ = rt.logger.Sync() }()

			return serve(cmd.Context(), rt)
		},
	}
}

func serve(parent context.Context, rt *app) error {
	cfg := rt.cfg
	logger := rt.logger

	storeCfg, err := cfg.StoreConfig()
	if err != nil {
		return err
	}
	if len(storeCfg.HashKey) == 0 {
		logger.Warn("views.hash_key not set; page views will not survive a restart")
	}
	store, err := views.NewStore(storeCfg)
	if err != nil {
		return fmt.Errorf("creating view store: %w", err)
	}

	srv, err := httpserver.New(httpserver.Config{
		Address:          cfg.Server.Addr,
		BasePath:         cfg.Server.BasePath,
		Environment:      cfg.EnvironmentLabel(),
		Policy:           cfg.Policy(),
		Logger:           logger,
		Catalog:          rt.catalog,
		Views:            store,
		CSRFCookieName:   cfg.CSRF.CookieName,
		CSRFHeaderName:   cfg.CSRF.HeaderName,
		CSRFCookieSecure: cfg.CSRF.Secure,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		ReadTimeout:      cfg.Server.ReadTimeout,
		WriteTimeout:     cfg.Server.WriteTimeout,
		IdleTimeout:      cfg.Server.IdleTimeout,
		RequestTimeout:   cfg.Server.RequestTimeout,
	})
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logger.Info("landing page listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("environment", cfg.EnvironmentLabel()),
		zap.Stringer("policy", cfg.Policy()),
		zap.Int("max_views", cfg.Views.MaxViews),
	)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("landing page stopped", zap.Int("live_views", store.Len()))
	return nil
}
