// Package bootstrap wires configuration, auth middleware and tracing for
// the command-line entry points.
package bootstrap

import (
	"context"
	"fmt"

	"socialflow/internal/config"
	"socialflow/internal/middleware"
	"socialflow/internal/observability"

	"github.com/joho/godotenv"
)

// Runtime holds process-wide state established at startup.
type Runtime struct {
	Config *config.Config

	tracingShutdown func(context.Context) error
}

// InitRuntime loads and validates configuration, initializes the auth
// middleware and, when enabled, the OpenTelemetry tracer provider.
func InitRuntime() (*Runtime, error) {
	// A missing .env file is fine; environment variables still apply.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	middleware.InitMiddleware(cfg)

	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "socialflow-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.TracingOTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	return &Runtime{Config: cfg, tracingShutdown: shutdown}, nil
}

// Shutdown flushes and stops runtime-owned resources.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r.tracingShutdown != nil {
		return r.tracingShutdown(ctx)
	}
	return nil
}
