// Copyright (c) Microsoft. All rights reserved.

package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	logglobal "go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// shutdownTimeout bounds the final flush towards the collector.
const shutdownTimeout = 10 * time.Second

// Provider owns the telemetry pipeline installed by Setup. The zero value
// (and the value returned for a disabled Config) owns nothing and all its
// methods are no-ops.
type Provider struct {
	cfg    Config
	traces *sdktrace.TracerProvider
	meters *sdkmetric.MeterProvider
	logs   *sdklog.LoggerProvider
}

// Setup installs the OpenTelemetry pipeline described by cfg and registers
// it globally: OTLP gRPC exporters for traces, metrics, and logs, the
// BaggageProjector and LifecycleGuard span processors, and the W3C trace
// context + baggage propagators every process in the demo shares.
//
// With no endpoint configured nothing is installed: the global providers
// stay no-ops and the process runs normally without telemetry. Export
// errors after Setup are logged at debug level by the registered error
// handler and never reach the primary workflow.
func Setup(ctx context.Context, cfg Config) (*Provider, error) {
	p := &Provider{cfg: cfg}
	if !cfg.Enabled() {
		slog.InfoContext(ctx, "telemetry disabled, no exporter endpoint configured")
		return p, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(instrumentationVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("building telemetry resource: %w", err)
	}

	if p.traces, err = newTracerProvider(ctx, cfg, res); err != nil {
		return nil, err
	}
	otel.SetTracerProvider(p.traces)

	if p.meters, err = newMeterProvider(ctx, cfg, res); err != nil {
		return nil, err
	}
	otel.SetMeterProvider(p.meters)

	if p.logs, err = newLoggerProvider(ctx, cfg, res); err != nil {
		return nil, err
	}
	logglobal.SetLoggerProvider(p.logs)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		slog.Debug("telemetry export error", "error", err)
	}))

	slog.InfoContext(ctx, "telemetry enabled",
		"endpoint", cfg.Endpoint,
		"service", cfg.ServiceName,
		"capture_content", cfg.CaptureContent)
	return p, nil
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	var onViolation ViolationFunc
	if cfg.StrictSpans {
		onViolation = StrictViolation
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewBaggageProjector()),
		sdktrace.WithSpanProcessor(NewLifecycleGuard(onViolation)),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	), nil
}

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	), nil
}

func newLoggerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating log exporter: %w", err)
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	), nil
}

// Enabled reports whether this provider owns an installed pipeline.
func (p *Provider) Enabled() bool {
	return p != nil && p.traces != nil
}

// LogHandler returns a slog handler that exports records through the
// configured logger provider, or nil when telemetry is disabled.
func (p *Provider) LogHandler(name string) slog.Handler {
	if p == nil || p.logs == nil {
		return nil
	}
	return otelslog.NewHandler(name, otelslog.WithLoggerProvider(p.logs))
}

// Shutdown flushes buffered telemetry and releases the pipeline. Export
// failures during the flush are logged and swallowed; the caller's outcome
// never depends on the collector being reachable.
func (p *Provider) Shutdown(ctx context.Context) {
	if p == nil || !p.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := p.traces.Shutdown(ctx); err != nil {
		slog.Warn("trace pipeline shutdown", "error", err)
	}
	if err := p.meters.Shutdown(ctx); err != nil {
		slog.Warn("metric pipeline shutdown", "error", err)
	}
	if err := p.logs.Shutdown(ctx); err != nil {
		slog.Warn("log pipeline shutdown", "error", err)
	}
}
