package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dilemmas",
	Short: "Dilemmas voting and moderation API",
	Long: `Backend for binary-choice dilemmas: users vote on them and denounce
inappropriate ones, which are deactivated once enough denunciations pile up.

Running without a subcommand starts the HTTP server.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from the environment")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
