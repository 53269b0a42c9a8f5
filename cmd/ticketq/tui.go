package main

import (
	"fmt"
	"net/url"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/ticketq/internal/app"
	"github.com/rebeliceyang/ticketq/internal/favorites"
	"github.com/rebeliceyang/ticketq/internal/filterform"
	"github.com/rebeliceyang/ticketq/internal/logger"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [querystring]",
	Short: "Edit and run queries in the terminal",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(os.Stderr)
		if err != nil {
			return err
		}
		logFile, err := openLogFile(cfg)
		if err != nil {
			return err
		}
		defer logFile.Close()
		logger.Initialize(logFile, "json", cfg.Log.Level)

		cat, err := cfg.Catalog()
		if err != nil {
			return err
		}

		b, err := openBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		var opts []app.Option
		if favs, err := favorites.NewManager(cfg.Favorites.Dir, cat); err != nil {
			logger.Warn("saved queries unavailable", "error", err)
		} else {
			opts = append(opts, app.WithFavorites(favs))
		}
		if len(args) == 1 {
			v, err := url.ParseQuery(args[0])
			if err != nil {
				return fmt.Errorf("invalid query string: %w", err)
			}
			form, err := filterform.ParseValues(cat, v)
			if err != nil {
				return err
			}
			opts = append(opts, app.WithForm(form))
		}

		progOpts := []tea.ProgramOption{tea.WithAltScreen()}
		if cfg.UI.MouseEnabled {
			zone.NewGlobal()
			defer zone.Close()
			progOpts = append(progOpts, tea.WithMouseCellMotion())
		}

		p := tea.NewProgram(app.New(cfg, cat, b.service, opts...), progOpts...)
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running program: %w", err)
		}
		return nil
	},
}
