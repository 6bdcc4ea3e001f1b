package sdk

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request outcomes. A missing record is reported apart from failures since
// json-server answers 404 during normal use.
const (
	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// instruments reports each request to an optional logger and optional
// Prometheus collectors.
type instruments struct {
	logger   *slog.Logger
	requests *prometheus.CounterVec   // op, resource, outcome
	latency  *prometheus.HistogramVec // op
}

func newInstruments(logger *slog.Logger, reg prometheus.Registerer) (*instruments, error) {
	in := &instruments{logger: logger}
	if reg == nil {
		return in, nil
	}

	var err error
	in.requests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jsonserver",
		Subsystem: "sdk",
		Name:      "requests_total",
		Help:      "Requests sent by the SDK by operation, resource and outcome.",
	}, []string{"op", "resource", "outcome"}))
	if err != nil {
		return nil, err
	}
	in.latency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jsonserver",
		Subsystem: "sdk",
		Name:      "request_duration_seconds",
		Help:      "Round-trip time of SDK requests in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"op"}))
	if err != nil {
		return nil, err
	}
	return in, nil
}

// register adds c to reg. When another client already registered the same
// collector, that one is returned so every client shares the series.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var dup prometheus.AlreadyRegisteredError
	if !errors.As(err, &dup) {
		return c, fmt.Errorf("sdk: register metrics: %w", err)
	}
	existing, ok := dup.ExistingCollector.(C)
	if !ok {
		return c, fmt.Errorf("sdk: %T already registered under the same name", dup.ExistingCollector)
	}
	return existing, nil
}

func (in *instruments) record(op, resource string, d time.Duration, err error) {
	outcome := outcomeOf(err)
	if in.requests != nil {
		in.requests.WithLabelValues(op, resource, outcome).Inc()
		in.latency.WithLabelValues(op).Observe(d.Seconds())
	}
	if in.logger == nil {
		return
	}
	attrs := []any{"op", op, "resource", resource, "outcome", outcome, "duration", d}
	if outcome == outcomeError {
		in.logger.Warn("json-server request failed", append(attrs, "error", err)...)
		return
	}
	in.logger.Debug("json-server request", attrs...)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrNotFound):
		return outcomeNotFound
	default:
		return outcomeError
	}
}
