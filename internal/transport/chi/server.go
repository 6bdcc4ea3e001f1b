// Package chi is the HTTP boundary: it maps requests onto resource
// operations and renders their results.
package chi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mpezzi/json-server/internal/domain"
	"github.com/mpezzi/json-server/internal/domain/nested"
	"github.com/mpezzi/json-server/internal/domain/query"
	"github.com/mpezzi/json-server/internal/domain/record"
	"github.com/mpezzi/json-server/internal/domain/value"
	logpkg "github.com/mpezzi/json-server/internal/logger"
	"github.com/mpezzi/json-server/internal/metrics"
	healthuc "github.com/mpezzi/json-server/internal/usecase/health"
	resourceuc "github.com/mpezzi/json-server/internal/usecase/resource"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers.
type Server struct {
	resources     *resourceuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	static        http.Handler
	errorHandlers []errorHandler
}

// NewServer creates an HTTP server. health and logger can be nil.
func NewServer(resources *resourceuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		resources: resources,
		health:    health,
		logger:    logger,
		static:    staticHandler(),
	}
	s.errorHandlers = []errorHandler{
		notFoundHandler,
		sentinelHandler(domain.ErrBodyTooLarge, http.StatusRequestEntityTooLarge, codeTooLarge),
		sentinelHandler(domain.ErrInvalidBody, http.StatusBadRequest, codeBadRequest),
	}
	return s
}

// Routes registers every route on r. Fixed paths win over the resource
// patterns, so /db, /health and /metrics are not available as resource names.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Index)
	r.Get("/stylesheets/*", s.Index)
	r.Get("/db", s.Dump)
	if s.health != nil {
		r.Get("/health", s.HealthCheck)
	}
	r.Get("/metrics", s.Metrics)

	r.Get("/{resource}", s.List)
	r.Post("/{resource}", s.Create)
	r.Get("/{resource}/{id}", s.Get)
	r.Put("/{resource}/{id}", s.Replace)
	r.Patch("/{resource}/{id}", s.Merge)
	r.Delete("/{resource}/{id}", s.Delete)
	r.Get("/{parent}/{parentID}/{resource}", s.List)
}

// Index serves the informational page and stylesheet.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	s.static.ServeHTTP(w, r)
}

// Dump handles GET /db.
func (s *Server) Dump(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.resources.Dump(r.Context()))
}

// List handles GET /{resource} and GET /{parent}/{parentID}/{resource}.
func (s *Server) List(w http.ResponseWriter, r *http.Request) {
	var parent *nested.Parent
	if p := chi.URLParam(r, "parent"); p != "" {
		parent = &nested.Parent{Resource: p, ID: chi.URLParam(r, "parentID")}
	}

	page, err := s.resources.List(r.Context(), chi.URLParam(r, "resource"), query.Parse(r.URL.Query()), parent)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if page.Paginated {
		w.Header().Set(headerTotalCount, strconv.Itoa(page.Total))
		w.Header().Set(headerExposeHeads, headerTotalCount)
	}
	writeJSON(w, http.StatusOK, page.Items)
}

// Get handles GET /{resource}/{id}.
func (s *Server) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := s.resources.Get(r.Context(), chi.URLParam(r, "resource"), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Create handles POST /{resource}.
func (s *Server) Create(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	rec, err := s.resources.Create(r.Context(), chi.URLParam(r, "resource"), body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Replace handles PUT /{resource}/{id}.
func (s *Server) Replace(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, s.resources.Replace)
}

// Merge handles PATCH /{resource}/{id}.
func (s *Server) Merge(w http.ResponseWriter, r *http.Request) {
	s.update(w, r, s.resources.Merge)
}

type updateFunc func(ctx context.Context, name, id string, body *value.Object) (record.Record, error)

func (s *Server) update(w http.ResponseWriter, r *http.Request, fn updateFunc) {
	body, err := decodeBody(w, r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	rec, err := fn(r.Context(), chi.URLParam(r, "resource"), chi.URLParam(r, "id"), body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /{resource}/{id}. Always 204.
func (s *Server) Delete(w http.ResponseWriter, r *http.Request) {
	if err := s.resources.Delete(r.Context(), chi.URLParam(r, "resource"), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type healthResponse struct {
	Status    healthuc.Status                 `json:"status"`
	Checks    map[string]healthuc.CheckResult `json:"checks"`
	Resources int                             `json:"resources"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{
		Status:    report.Status,
		Checks:    report.Checks,
		Resources: report.Resources,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics.Handler().ServeHTTP(w, r)
}

// notFoundHandler answers a missing record with 404 and an empty object.
func notFoundHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrNotFound) {
		return false
	}
	writeJSON(w, http.StatusNotFound, struct{}{})
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Debug("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
