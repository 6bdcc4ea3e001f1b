// Package backend opens the configured persistence backend.
package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/mpezzi/json-server/internal/db"
	"github.com/mpezzi/json-server/internal/db/file"
	"github.com/mpezzi/json-server/internal/db/redis"
	"github.com/mpezzi/json-server/internal/db/sqlite"
)

// Backend names.
const (
	Memory = "memory"
	File   = "file"
	SQLite = "sqlite"
	Redis  = "redis"
)

// Config selects and parameterizes a backend.
type Config struct {
	Backend  string
	Path     string
	Addrs    []string
	Username string
	Password string
	DB       int
	Key      string
	// ReadyTimeout bounds the wait for network backends.
	ReadyTimeout time.Duration
}

// Open returns the persister for cfg, or nil for the memory backend.
//
// Supported backends:
//
//	"memory" - nothing is persisted (default when no path is set)
//	"file"   - JSON or YAML document at Path (default when a path is set)
//	"sqlite" - SQLite database at Path
//	"redis"  - single key on a Redis server
func Open(ctx context.Context, cfg Config) (db.Persister, error) {
	switch cfg.Backend {
	case Memory:
		return nil, nil
	case "":
		if cfg.Path == "" {
			return nil, nil
		}
		return openFile(cfg.Path)
	case File:
		return openFile(cfg.Path)
	case SQLite:
		s, err := sqlite.NewStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case Redis:
		s, err := redis.NewStore(redis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
			Key:      cfg.Key,
		})
		if err != nil {
			return nil, err
		}
		if cfg.ReadyTimeout > 0 {
			if err := s.WaitForReady(ctx, cfg.ReadyTimeout); err != nil {
				_ = s.Close()
				return nil, err
			}
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: memory, file, sqlite, redis)", cfg.Backend)
	}
}

func openFile(path string) (db.Persister, error) {
	s, err := file.NewStore(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}
