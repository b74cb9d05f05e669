package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finitefield.org/chatthing-web/internal/config"
	"finitefield.org/chatthing-web/internal/content"
	"finitefield.org/chatthing-web/internal/observability"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "web",
		Short:         "Chat Thing landing page server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "web.yaml", "config file path")
	config.RegisterFlags(root.PersistentFlags())

	serve := newServeCmd(&cfgFile)
	root.AddCommand(serve, newExportCmd(&cfgFile))
	// Running the bare binary serves, like `web serve`.
	root.RunE = serve.RunE

	return root
}

// app is what every subcommand needs before doing its work.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	catalog *content.Catalog
}

func bootstrap(cmd *cobra.Command, cfgFile string) (*app, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := observability.NewLogger(cfg.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	catalog, err := content.Load(cfg.Content.Path)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("loading content: %w", err)
	}

	return &app{cfg: cfg, logger: logger, catalog: catalog}, nil
}
