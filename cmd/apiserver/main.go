// Copyright (c) Microsoft. All rights reserved.

// Command apiserver runs the product catalog API on HTTP. It serves the
// product of the day, a data processing endpoint, and a health probe, all
// instrumented with OpenTelemetry.
//
// Configuration comes from the environment (a .env file is honored):
//
//	PORT                         listen port (default 8000)
//	OTEL_EXPORTER_OTLP_ENDPOINT  OTLP collector endpoint; telemetry export
//	                             is disabled when unset
//	DEBUG                        any value enables debug logging
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/contoso/agent-observability/productapi"
	"github.com/contoso/agent-observability/telemetry"
)

type config struct {
	Port int `env:"PORT, default=8000"`
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("api server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	console := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(console))

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return fmt.Errorf("reading configuration: %w", err)
	}

	telCfg, err := telemetry.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("reading telemetry configuration: %w", err)
	}
	if telCfg.ServiceName == telemetry.DefaultServiceName {
		telCfg.ServiceName = "api-server"
	}
	provider, err := telemetry.Setup(ctx, telCfg)
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}
	defer provider.Shutdown(context.Background())

	logger := slog.New(telemetry.NewFanoutHandler(console, provider.LogHandler("apiserver")))
	slog.SetDefault(logger)

	srv := productapi.NewServer(
		productapi.WithServiceName(telCfg.ServiceName),
		productapi.WithLogger(logger),
	)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	logger.InfoContext(ctx, "product api listening",
		"addr", httpSrv.Addr,
		"telemetry", provider.Enabled(),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
