package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	jsonserver "github.com/mpezzi/json-server"
	"github.com/mpezzi/json-server/internal/config"
	logpkg "github.com/mpezzi/json-server/internal/logger"
	"github.com/mpezzi/json-server/internal/version"
)

var serveFlags struct {
	env     string
	port    int
	source  string
	backend string
	path    string
	idKey   string
	watch   bool
}

var serveCmd = &cobra.Command{
	Use:   "serve [source]",
	Short: "Start the HTTP server",
	Example: `  json-server serve db.json
  json-server serve --watch db.yaml
  json-server serve seed.json --backend sqlite --path db.sqlite`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			serveFlags.source = args[0]
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return serve(cfg, serveFlags.env)
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.env, "env", config.GetEnv(), "config environment (config/<env>.yaml)")
	f.IntVarP(&serveFlags.port, "port", "p", 0, "HTTP port")
	f.StringVarP(&serveFlags.source, "source", "s", "", "JSON or YAML document to serve")
	f.StringVar(&serveFlags.backend, "backend", "", "persistence backend: memory, file, sqlite, redis")
	f.StringVar(&serveFlags.path, "path", "", "file or sqlite location for persisted writes")
	f.StringVar(&serveFlags.idKey, "id-key", "", "identifier field")
	f.BoolVarP(&serveFlags.watch, "watch", "w", false, "reload when the database file changes")
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads config/<env>.yaml; flags set on the command line win.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	cfg, err := config.Load(serveFlags.env, func(c *config.Config) {
		if flags.Changed("port") {
			c.HTTP.Port = serveFlags.port
		}
		if serveFlags.source != "" {
			c.Store.Source = serveFlags.source
		}
		if flags.Changed("backend") {
			c.Store.Backend = serveFlags.backend
		}
		if flags.Changed("path") {
			c.Store.Path = serveFlags.path
		}
		if flags.Changed("id-key") {
			c.Store.IDKey = serveFlags.idKey
		}
		if flags.Changed("watch") {
			c.Store.Watch = serveFlags.watch
		}
	})
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// routerOptions maps the configuration onto router options.
func routerOptions(cfg config.Config, logger *zap.Logger) []jsonserver.Option {
	opts := []jsonserver.Option{
		jsonserver.WithIDKey(cfg.Store.IDKey),
		jsonserver.WithLogger(logger),
		jsonserver.WithAllowedOrigins(cfg.CORS.AllowedOrigins...),
		jsonserver.WithBackend(jsonserver.Backend{
			Kind:         cfg.Store.Backend,
			Path:         cfg.Store.Path,
			Addrs:        cfg.Store.Addrs,
			Username:     cfg.Store.Username,
			Password:     cfg.Store.Password,
			DB:           cfg.Store.DB,
			Key:          cfg.Store.Key,
			ReadyTimeout: time.Duration(cfg.Store.ReadinessTimeout) * time.Second,
		}),
	}
	if !cfg.Metrics.Disabled {
		opts = append(opts, jsonserver.WithMetrics())
	}
	if cfg.Store.Watch {
		opts = append(opts, jsonserver.WithWatch())
	}
	return opts
}

// source returns the seed for the router: the configured document path, or
// nothing.
func source(cfg config.Config) any {
	if cfg.Store.Source == "" {
		return nil
	}
	return cfg.Store.Source
}

func serve(cfg config.Config, env string) error {
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting json-server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("source", cfg.Store.Source),
		zap.String("backend", cfg.Store.Backend),
		zap.String("id_key", cfg.Store.IDKey),
		zap.Bool("watch", cfg.Store.Watch),
	)

	router, err := jsonserver.NewRouter(source(cfg), routerOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	defer func() {
		if err := router.Close(); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}
	}()
	logger.Info("Database loaded", zap.Strings("resources", router.DB().Names()))

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
