package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	jsonserver "github.com/mpezzi/json-server"
	"github.com/mpezzi/json-server/internal/config"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [source]",
	Short: "Print the database as JSON",
	Long: `dump loads the database the way serve would (seed document, then the
configured backend) and prints it as indented JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			serveFlags.source = args[0]
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg.Store.Watch = false

		router, err := jsonserver.NewRouter(source(cfg), routerOptions(cfg, nil)...)
		if err != nil {
			return fmt.Errorf("build router: %w", err)
		}
		defer func() { _ = router.Close() }()

		data, err := json.MarshalIndent(router.DB(), "", "  ")
		if err != nil {
			return fmt.Errorf("encode database: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func init() {
	f := dumpCmd.Flags()
	f.StringVar(&serveFlags.env, "env", config.GetEnv(), "config environment (config/<env>.yaml)")
	f.StringVarP(&serveFlags.source, "source", "s", "", "JSON or YAML document to load")
	f.StringVar(&serveFlags.backend, "backend", "", "persistence backend: memory, file, sqlite, redis")
	f.StringVar(&serveFlags.path, "path", "", "file or sqlite location")
	f.StringVar(&serveFlags.idKey, "id-key", "", "identifier field")
	rootCmd.AddCommand(dumpCmd)
}
