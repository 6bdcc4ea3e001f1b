package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "json-server",
	Short: "Serve a JSON document as a REST API",
	Long: `json-server turns a JSON or YAML document into a REST API.
Every top-level array becomes a resource with list, search, filter,
sort, slice and CRUD routes.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// .env.local wins: godotenv never overrides variables already set.
		_ = godotenv.Load(".env.local")
		_ = godotenv.Load(".env")
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
