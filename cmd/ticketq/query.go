package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/ticketq/internal/export"
	"github.com/rebeliceyang/ticketq/internal/filterform"
	"github.com/rebeliceyang/ticketq/internal/models"
)

var queryCmd = &cobra.Command{
	Use:   "query [querystring]",
	Short: "Run a query string and print the matching tickets",
	Example: `  ticketq query '0_status=new&0_status=assigned&0_owner=bob&order=priority'
  ticketq query '0_time=2w&0_time_end=' --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		showSQL, _ := cmd.Flags().GetBool("sql")
		qs := ""
		if len(args) == 1 {
			qs = args[0]
		}
		return runQuery(cmd, qs, format, showSQL)
	},
}

func init() {
	queryCmd.Flags().StringP("format", "f", "table", "output format: table, csv or json")
	queryCmd.Flags().Bool("sql", false, "print the generated SQL to stderr")
}

func runQuery(cmd *cobra.Command, qs, format string, showSQL bool) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return err
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}

	v, err := url.ParseQuery(strings.TrimPrefix(qs, "?"))
	if err != nil {
		return fmt.Errorf("invalid query string: %w", err)
	}
	form, err := filterform.ParseValues(cat, v)
	if err != nil {
		return err
	}

	b, err := openBackend(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	res, err := b.service.Run(cmd.Context(), cat, form)
	if err != nil {
		return err
	}
	if showSQL {
		fmt.Fprintln(cmd.ErrOrStderr(), res.SQL)
	}
	return writeResult(cmd.OutOrStdout(), f, res)
}

func writeResult(w io.Writer, f export.Format, res *models.QueryResult) error {
	switch f {
	case export.FormatCSV:
		return export.WriteCSV(w, res)
	case export.FormatJSON:
		return export.WriteJSON(w, res)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(res.Columns, "\t")))
	for _, row := range res.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d tickets (%s)\n", len(res.Rows), res.Duration)
	return err
}
