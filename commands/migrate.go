// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/fieldcode/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Long: `Create every table and index the pipeline needs. Safe to run repeatedly.

Examples:
  fieldcode migrate -d "file:fieldcode.db"
  fieldcode migrate -t postgres -d "postgres://localhost/fieldcode?sslmode=disable"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		printSuccess(cmd.OutOrStdout(), "Schema ready (%s): %s", cfg.DatabaseType, strings.Join(db.Tables, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
