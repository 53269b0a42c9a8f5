package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/ticketq/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [search]",
	Short: "Show recently executed queries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		cfg, err := loadConfig(os.Stderr)
		if err != nil {
			return err
		}
		if !cfg.History.Enabled {
			return fmt.Errorf("query history is disabled (history.enabled)")
		}

		hs, err := history.NewStore(cfg.History.Path, cfg.History.MaxEntries)
		if err != nil {
			return err
		}
		defer hs.Close()

		var entries []history.Entry
		if len(args) == 1 {
			entries, err = hs.Search(cmd.Context(), args[0], limit)
		} else {
			entries, err = hs.GetRecent(cmd.Context(), limit)
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tROWS\tTIME\tSTATUS\tQUERY")
		for _, e := range entries {
			status := "ok"
			if !e.Success {
				status = "error: " + e.ErrorMessage
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t?%s\n",
				e.ExecutedAt.Local().Format("2006-01-02 15:04:05"), e.RowCount, e.Duration, status, e.QueryString)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of entries")
}
