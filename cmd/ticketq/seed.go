package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/ticketq/internal/tickets"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the ticket table and fill it with demo tickets",
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("count")
		if count <= 0 {
			return fmt.Errorf("--count must be positive")
		}

		cfg, err := loadConfig(os.Stderr)
		if err != nil {
			return err
		}
		store, err := tickets.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("open ticket database: %w", err)
		}
		defer store.Close()

		n, err := store.Seed(cmd.Context(), tickets.DemoTickets(time.Now(), count))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d tickets into %s database\n", n, cfg.Database.Driver)
		return nil
	},
}

func init() {
	seedCmd.Flags().IntP("count", "n", 200, "number of demo tickets")
}
