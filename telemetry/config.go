// Copyright (c) Microsoft. All rights reserved.

package telemetry

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// DefaultServiceName is the service.name used when OTEL_SERVICE_NAME is not
// set. Must match the ServiceName struct tag default below; binaries with an
// identity of their own replace it after loading.
const DefaultServiceName = "agent-observability-demo"

// Config is the telemetry wiring read once at process start. An empty
// Endpoint disables telemetry entirely; the process still runs, with every
// tracer, meter, and logger call degraded to a no-op.
type Config struct {
	// Endpoint is the host:port of an OTLP gRPC collector, for example
	// "localhost:4317". Empty means telemetry is disabled.
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// ServiceName identifies this process in exported telemetry.
	ServiceName string `env:"OTEL_SERVICE_NAME, default=agent-observability-demo"`

	// Insecure disables transport security towards the collector. The demo
	// collector runs locally, so this defaults to true.
	Insecure bool `env:"OTEL_EXPORTER_OTLP_INSECURE, default=true"`

	// CaptureContent opts into recording message and tool payloads on spans.
	// Off by default; payloads may contain end-user data.
	CaptureContent bool `env:"ENABLE_SENSITIVE_DATA, default=false"`

	// StrictSpans makes span lifecycle violations panic instead of logging,
	// for debug runs that should fail fast on a broken scope discipline.
	StrictSpans bool `env:"TELEMETRY_STRICT_SPANS, default=false"`
}

// LoadConfig reads Config from the environment.
func LoadConfig(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, fmt.Errorf("reading telemetry configuration: %w", err)
	}
	return cfg, nil
}

// Enabled reports whether an exporter endpoint is configured.
func (c Config) Enabled() bool {
	return c.Endpoint != ""
}
