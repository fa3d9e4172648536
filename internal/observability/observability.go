// Package observability builds the logger, metrics registry and tracer shared by
// every module.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config describes how observability components are built.
type Config struct {
	ServiceName string
	Environment string
	Version     string
	LogLevel    string
}

// Provider bundles the observability components handed to modules.
type Provider struct {
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Tracer   trace.Tracer
}

// New builds a Provider writing JSON logs to stdout.
func New(cfg Config) *Provider {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter builds a Provider writing logs to w.
func NewWithWriter(cfg Config, w io.Writer) *Provider {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if cfg.Environment == "development" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler).With(
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.String("version", cfg.Version),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Provider{
		Logger:   logger,
		Registry: registry,
		Tracer:   otel.Tracer(cfg.ServiceName),
	}
}

// NewNoop builds a Provider that discards logs and spans. Used by tests.
func NewNoop() *Provider {
	return &Provider{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registry: prometheus.NewRegistry(),
		Tracer:   noop.NewTracerProvider().Tracer("noop"),
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
