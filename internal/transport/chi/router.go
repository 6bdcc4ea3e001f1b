package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mpezzi/json-server/internal/metrics"
)

// RouterConfig tunes the middleware stack.
type RouterConfig struct {
	Logger         *zap.Logger
	AllowedOrigins []string
	// Metrics enables per-route request metrics.
	Metrics bool
}

// NewRouter wires the middleware stack and every route of s.
func NewRouter(s *Server, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.StripSlashes)
	r.Use(WideEvent(logger))
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(MethodOverride)
	r.Use(JSONP)
	if cfg.Metrics {
		r.Use(metrics.Middleware())
	}

	s.Routes(r)
	return r
}
