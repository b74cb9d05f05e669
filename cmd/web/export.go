package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finitefield.org/chatthing-web/internal/content"
	"finitefield.org/chatthing-web/internal/templates"
	"finitefield.org/chatthing-web/internal/uistate"
)

func newExportCmd(cfgFile *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the initial page as static HTML",
		Long: `Renders the landing page in its initial state without htmx endpoints, for
hosting on a static file server. Widgets stay in their initial state.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := bootstrap(cmd, *cfgFile)
			if err != nil {
				return err
			}
			defer func() { _ = rt.logger.Sync() }()

			render := func(w io.Writer) (int, error) {
				return exportPage(cmd.Context(), w, rt.catalog, rt.cfg.Server.BasePath, rt.cfg.EnvironmentLabel())
			}

			var n int
			if out == "" || out == "-" {
				n, err = render(cmd.OutOrStdout())
			} else {
				f, createErr := os.Create(out)
				if createErr != nil {
					return fmt.Errorf("creating %s: %w", out, createErr)
				}
				n, err = writeAndClose(f, render)
			}
			if err != nil {
				return err
			}
			rt.logger.Info("exported landing page", zap.String("out", out), zap.Int("bytes", n))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (stdout when empty or -)")

	return cmd
}

func exportPage(ctx context.Context, w io.Writer, catalog *content.Catalog, basePath, environment string) (int, error) {
	renderer, err := templates.New()
	if err != nil {
		return 0, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	data := templates.PageData{
		Catalog:     catalog,
		State:       uistate.NewPage(len(catalog.FAQ.Entries)).Snapshot(),
		BasePath:    basePath,
		Environment: environment,
		Static:      true,
	}

	var buf bytes.Buffer
	if err := renderer.Page(data).Render(ctx, &buf); err != nil {
		return 0, fmt.Errorf("rendering page: %w", err)
	}
	n, err := w.Write(buf.Bytes())
	if err != nil {
		return n, fmt.Errorf("writing page: %w", err)
	}
	return n, nil
}

// writeAndClose reports a failed Close, which is where buffered file writes surface.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) (int, error)) (n int, err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output: %w", cerr)
		}
	}()
	return write(wc)
}
