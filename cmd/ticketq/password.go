package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/ticketq/internal/db/connection"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Store the PostgreSQL password in the system keyring",
	Long: `Reads the password for the configured PostgreSQL database from stdin
and stores it in the system keyring, so it does not have to be kept in the
config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(os.Stderr)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s@%s:%d/%s: ", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return fmt.Errorf("empty password")
		}
		if err := connection.SavePassword(cfg.Database, password); err != nil {
			return fmt.Errorf("store password: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Stored")
		return nil
	},
}
