package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/ticketq/internal/config"
	"github.com/rebeliceyang/ticketq/internal/filter"
	"github.com/rebeliceyang/ticketq/internal/history"
	"github.com/rebeliceyang/ticketq/internal/logger"
	"github.com/rebeliceyang/ticketq/internal/tickets"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ticketq",
	Short: "Build and run ticket queries",
	Long: `ticketq builds ticket queries from filter clauses and runs them
against a SQLite or PostgreSQL ticket database, from the browser, the
terminal or the command line.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/ticketq/config.yaml)")

	rootCmd.AddCommand(serveCmd, tuiCmd, queryCmd, seedCmd, favoritesCmd, historyCmd, passwordCmd)
}

// loadConfig reads the configuration and sets up logging to w
func loadConfig(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if cfg.General.Debug {
		level = "debug"
	}
	logger.Initialize(w, cfg.Log.Format, level)
	return cfg, nil
}

// backend is the ticket service with everything it holds open
type backend struct {
	store   tickets.Store
	history *history.Store
	service *tickets.Service
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	store, err := tickets.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open ticket database: %w", err)
	}
	b := &backend{store: store}

	opts := []tickets.ServiceOption{
		tickets.WithTimeout(time.Duration(cfg.Timeouts.Query) * time.Millisecond),
		tickets.WithSelectOptions(filter.SelectOptions{
			DefaultOrder: cfg.General.DefaultOrder,
			DefaultLimit: cfg.General.DefaultLimit,
		}),
	}
	if cfg.History.Enabled {
		hs, err := history.NewStore(cfg.History.Path, cfg.History.MaxEntries)
		if err != nil {
			logger.Warn("query history disabled", "path", cfg.History.Path, "error", err)
		} else {
			b.history = hs
			opts = append(opts, tickets.WithHistory(hs))
		}
	}
	b.service = tickets.NewService(store, opts...)
	return b, nil
}

func (b *backend) Close() {
	if b.history != nil {
		if err := b.history.Close(); err != nil {
			logger.Warn("failed to close history", "error", err)
		}
	}
	if err := b.store.Close(); err != nil {
		logger.Warn("failed to close ticket database", "error", err)
	}
}

// openLogFile opens the log file used while the terminal UI owns the screen
func openLogFile(cfg *config.Config) (*os.File, error) {
	dir := filepath.Dir(cfg.History.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "ticketq.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
