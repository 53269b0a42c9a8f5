package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rebeliceyang/ticketq/internal/config"
	"github.com/rebeliceyang/ticketq/internal/logger"
	"github.com/rebeliceyang/ticketq/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query page over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return serve(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides web.addr)")
}

func serve(parent context.Context, addr string) error {
	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Web.Addr
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	srv, err := web.NewServer(cfg.Web, cat, b.service)
	if err != nil {
		return err
	}
	srv.SetStrict(cfg.General.Debug)

	// Property catalog changes apply without a restart
	err = config.Watch(cfgFile, func(next *config.Config, err error) {
		if err != nil {
			logger.Error("config reload failed", "error", err)
			return
		}
		cat, err := next.Catalog()
		if err != nil {
			logger.Error("config reload failed", "error", err)
			return
		}
		srv.SetCatalog(cat)
		logger.Info("property catalog reloaded", "properties", len(cat.Properties))
	})
	if err != nil {
		logger.Debug("config watch disabled", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving query page", "addr", addr, "base_path", cfg.Web.BasePath, "driver", cfg.Database.Driver)
		return web.ListenAndServe(ctx, addr, srv.Handler(), cfg.Timeouts)
	})
	return g.Wait()
}
