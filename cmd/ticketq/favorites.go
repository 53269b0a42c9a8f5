package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/ticketq/internal/export"
	"github.com/rebeliceyang/ticketq/internal/favorites"
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "Manage saved queries",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list [search]",
	Short: "List saved queries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orderName, _ := cmd.Flags().GetString("order")
		limit, _ := cmd.Flags().GetInt("limit")
		order, err := favorites.ParseOrder(orderName)
		if err != nil {
			return err
		}
		m, err := openFavorites()
		if err != nil {
			return err
		}
		favs := m.List(order, limit)
		if len(args) == 1 {
			favs = m.Search(args[0])
		}
		if len(favs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved queries")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tUSED\tTAGS\tQUERY")
		for _, f := range favs {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", f.Name, f.UsageCount, strings.Join(f.Tags, ","), f.Query)
		}
		return w.Flush()
	},
}

var favoritesSaveCmd = &cobra.Command{
	Use:   "save <name> <querystring>",
	Short: "Save a query string under a name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, _ := cmd.Flags().GetString("description")
		tags, _ := cmd.Flags().GetStringSlice("tag")

		m, err := openFavorites()
		if err != nil {
			return err
		}
		fav, err := m.Add(args[0], desc, args[1], tags)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %q (%s)\n", fav.Name, fav.ID)
		return nil
	},
}

var favoritesRunCmd = &cobra.Command{
	Use:   "run <name|id>",
	Short: "Run a saved query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		m, err := openFavorites()
		if err != nil {
			return err
		}
		fav, err := m.Find(args[0])
		if err != nil {
			return err
		}
		if err := m.RecordUsage(fav.ID); err != nil {
			return err
		}
		return runQuery(cmd, fav.Query, format, false)
	},
}

var favoritesDeleteCmd = &cobra.Command{
	Use:   "delete <name|id>",
	Short: "Delete a saved query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openFavorites()
		if err != nil {
			return err
		}
		fav, err := m.Find(args[0])
		if err != nil {
			return err
		}
		return m.Delete(fav.ID)
	},
}

var favoritesExportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export saved queries as CSV or JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		m, err := openFavorites()
		if err != nil {
			return err
		}

		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}
		var path string
		if len(args) == 1 {
			path = args[0]
		}
		path, err = m.Export(f, path)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Exported to", path)
		return nil
	},
}

func init() {
	favoritesSaveCmd.Flags().StringP("description", "d", "", "description")
	favoritesSaveCmd.Flags().StringSliceP("tag", "t", nil, "tag (repeatable)")
	favoritesListCmd.Flags().StringP("order", "o", "name", "sort order: name, usage or recent")
	favoritesListCmd.Flags().IntP("limit", "n", 0, "show at most n queries")
	favoritesRunCmd.Flags().StringP("format", "f", "table", "output format: table, csv or json")
	favoritesExportCmd.Flags().StringP("format", "f", "json", "export format: csv or json")

	favoritesCmd.AddCommand(favoritesListCmd, favoritesSaveCmd, favoritesRunCmd, favoritesDeleteCmd, favoritesExportCmd)
}

func openFavorites() (*favorites.Manager, error) {
	cfg, err := loadConfig(os.Stderr)
	if err != nil {
		return nil, err
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	return favorites.NewManager(cfg.Favorites.Dir, cat)
}
