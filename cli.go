package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okbk/onepage/internal/config"
	"github.com/okbk/onepage/internal/content"
	"github.com/okbk/onepage/internal/page"
	"github.com/okbk/onepage/internal/server"
	"github.com/okbk/onepage/internal/tracker"
	"github.com/okbk/onepage/internal/view"
	"github.com/okbk/onepage/internal/visits"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "portfolio",
		Short:         "One-page portfolio site",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "portfolio.yaml", "path to config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newRenderCmd(&configPath),
		newContentCmd(&configPath),
	)
	return root
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadCatalog(path string) (*content.Catalog, error) {
	if path == "" {
		c := content.Default()
		return c, c.Validate()
	}
	return content.Load(path)
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the portfolio over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			gin.SetMode(cfg.Server.Mode)

			catalog, err := loadCatalog(cfg.Content.File)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var store *visits.Store
			if cfg.Visits.Enabled {
				store, err = visits.Open(ctx, cfg.Visits.DSN)
				if err != nil {
					return err
				}
				defer store.Close()
				slog.Info("visit counting enabled with hashed client addresses")
			}

			srv, err := server.New(cfg, catalog, store)
			if err != nil {
				return err
			}

			g, gCtx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(gCtx) })
			g.Go(func() error { return srv.Sessions().Run(gCtx, cfg.Session.SweepInterval) })
			if store != nil && cfg.Visits.Retention > 0 {
				g.Go(func() error { return cleanupLoop(gCtx, store, cfg.Visits.Retention) })
			}
			return g.Wait()
		},
	}
}

// cleanupLoop drops visits older than retention once at start and then daily.
func cleanupLoop(ctx context.Context, store *visits.Store, retention time.Duration) error {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		n, err := store.Cleanup(ctx, retention)
		if err != nil && ctx.Err() == nil {
			slog.Error("cleaning up old visits", "error", err)
		} else if n > 0 {
			slog.Info("removed old visit records", "count", n)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func newRenderCmd(configPath *string) *cobra.Command {
	var (
		out  string
		dark bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Write the initial page as static HTML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg.Content.File)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrapf(err, "creating %s", out)
				}
				defer f.Close()
				w = f
			}
			return renderStatic(w, catalog, dark)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&dark, "dark", false, "render with the dark theme")
	return cmd
}

func renderStatic(w io.Writer, catalog *content.Catalog, dark bool) error {
	p := page.New(catalog, tracker.DefaultBand, page.Hooks{})
	if dark {
		p.ToggleTheme()
	}
	return view.Render(w, p.Snapshot(), true)
}

func newContentCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Inspect the page content",
	}

	var file string
	check := &cobra.Command{
		Use:   "check",
		Short: "Validate the content catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				cfg, err := loadConfig(*configPath)
				if err != nil {
					return err
				}
				file = cfg.Content.File
			}
			catalog, err := loadCatalog(file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d skills, %d projects, %d links\n",
				len(catalog.Skills), len(catalog.Projects), len(catalog.Links))
			return nil
		},
	}
	check.Flags().StringVarP(&file, "file", "f", "", "content YAML file (defaults to content.file from config)")
	cmd.AddCommand(check)
	return cmd
}
