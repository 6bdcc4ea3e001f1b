package jsonserver

import (
	"time"

	"go.uber.org/zap"
)

// Option configures a Router.
type Option func(*routerConfig)

type routerConfig struct {
	idKey          string
	logger         *zap.Logger
	allowedOrigins []string
	metrics        bool
	watch          bool
	backend        *Backend
	readOnly       bool
}

// Backend selects where writes are persisted. Without one, a path source is
// written back to its own file and a literal source lives in memory only.
type Backend struct {
	// Kind is one of "memory", "file", "sqlite" or "redis".
	Kind     string
	Path     string
	Addrs    []string
	Username string
	Password string
	DB       int
	Key      string
	// ReadyTimeout bounds the wait for a Redis server. Zero skips the wait.
	ReadyTimeout time.Duration
}

// WithIDKey sets the identifier field. Default: "uuid".
func WithIDKey(key string) Option {
	return func(c *routerConfig) {
		c.idKey = key
	}
}

// WithLogger sets the logger. Default: no logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *routerConfig) {
		c.logger = l
	}
}

// WithAllowedOrigins restricts CORS to the listed origins. Default: any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(c *routerConfig) {
		c.allowedOrigins = origins
	}
}

// WithMetrics records Prometheus request metrics for every route.
func WithMetrics() Option {
	return func(c *routerConfig) {
		c.metrics = true
	}
}

// WithWatch reloads the database when its file changes on disk.
// It only applies to file-backed routers.
func WithWatch() Option {
	return func(c *routerConfig) {
		c.watch = true
	}
}

// WithBackend persists writes to b instead of the default.
func WithBackend(b Backend) Option {
	return func(c *routerConfig) {
		c.backend = &b
	}
}

// ReadOnlySource keeps a path source untouched: writes stay in memory.
func ReadOnlySource() Option {
	return func(c *routerConfig) {
		c.readOnly = true
	}
}
