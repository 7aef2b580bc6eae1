package main

import (
	"dilemmas/internal/config"
	"dilemmas/internal/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := db.Open(config.DatabaseURL())
		if err != nil {
			return err
		}
		return db.Migrate(conn)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
