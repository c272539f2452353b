// Copyright (c) Microsoft. All rights reserved.

// Command demo drives the observability scenarios against the product API
// and the MCP tool server, then prints a report per run. Each scenario runs
// as a different synthetic user so traces, metrics, and logs can be compared
// across users and sessions in the telemetry backend.
//
// By default the demo talks to a scripted chat client so it works offline.
// Point it at a real model with AI_ENDPOINT (Azure OpenAI; AI_API_KEY is
// optional when the ambient Azure credential applies) to exercise the same
// scenarios against live completions.
//
// Configuration comes from the environment (a .env file is honored):
//
//	API_SERVER_URL               product API base URL (default http://localhost:8000)
//	MCP_SERVER_URL               tool server base URL (default http://localhost:8001)
//	AI_ENDPOINT                  chat completions endpoint; scripted client when unset
//	AI_API_KEY                   api key for AI_ENDPOINT
//	AI_API_VERSION               Azure OpenAI api-version (default 2024-10-21)
//	MODEL_NAME                   model deployment name (default gpt-4o)
//	SCENARIO_PAUSE               pause between scenarios (default 3s)
//	OTEL_EXPORTER_OTLP_ENDPOINT  OTLP collector endpoint; telemetry export
//	                             is disabled when unset
//	ENABLE_SENSITIVE_DATA        record prompts and completions on spans
//	DEBUG                        any value enables debug logging
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/contoso/agent-observability/agent"
	"github.com/contoso/agent-observability/openai"
	"github.com/contoso/agent-observability/productapi"
	"github.com/contoso/agent-observability/scenario"
	"github.com/contoso/agent-observability/telemetry"
	"github.com/contoso/agent-observability/toolrpc"
)

type config struct {
	APIServerURL string        `env:"API_SERVER_URL, default=http://localhost:8000"`
	MCPServerURL string        `env:"MCP_SERVER_URL, default=http://localhost:8001"`
	AIEndpoint   string        `env:"AI_ENDPOINT"`
	AIAPIKey     string        `env:"AI_API_KEY"`
	AIAPIVersion string        `env:"AI_API_VERSION, default=2024-10-21"`
	ModelName    string        `env:"MODEL_NAME, default=gpt-4o"`
	Pause        time.Duration `env:"SCENARIO_PAUSE, default=3s"`
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("demo exited", "error", err)
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
	provider, err := telemetry.Setup(ctx, telCfg)
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}
	defer provider.Shutdown(context.Background())

	logger := slog.New(telemetry.NewFanoutHandler(console, provider.LogHandler("demo")))
	slog.SetDefault(logger)

	api := productapi.NewClient(cfg.APIServerURL)
	tools := toolrpc.NewClient(cfg.MCPServerURL)
	checkBackends(ctx, logger, cfg, api, tools)

	opts := []scenario.RunnerOption{scenario.WithLogger(logger)}
	if telCfg.CaptureContent {
		opts = append(opts, scenario.WithContentCapture())
	}
	if factory := newChatFactory(cfg, logger); factory != nil {
		opts = append(opts, scenario.WithChatFactory(factory))
	}
	runner := scenario.NewRunner(api, tools, opts...)

	var failed int
	for i, id := range scenario.Scenarios() {
		if i > 0 {
			select {
			case <-time.After(cfg.Pause):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		report := runner.Run(ctx, id)
		printReport(report)
		if report.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(scenario.Scenarios()))
	}
	return nil
}

// checkBackends probes both services before the first scenario so a missing
// server shows up as one clear warning instead of a buried run failure.
func checkBackends(ctx context.Context, logger *slog.Logger, cfg config, api *productapi.Client, tools *toolrpc.Client) {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := api.Health(probeCtx); err != nil {
		logger.WarnContext(ctx, "product api unreachable", "url", cfg.APIServerURL, "error", err)
	}
	if _, err := tools.ListTools(probeCtx); err != nil {
		logger.WarnContext(ctx, "tool server unreachable", "url", cfg.MCPServerURL, "error", err)
	}
}

// newChatFactory returns nil when no endpoint is configured, leaving the
// runner on its scripted client.
func newChatFactory(cfg config, logger *slog.Logger) scenario.ChatFactory {
	if cfg.AIEndpoint == "" {
		logger.Info("no AI_ENDPOINT set, using the scripted chat client")
		return nil
	}
	return func(ctx context.Context) (agent.ChatClient, error) {
		opts := []openai.Option{
			openai.WithBaseURL(cfg.AIEndpoint),
			openai.WithModel(cfg.ModelName),
			openai.WithAPIVersion(cfg.AIAPIVersion),
		}
		if cfg.AIAPIKey == "" {
			cred, err := azidentity.NewDefaultAzureCredential(nil)
			if err != nil {
				return nil, fmt.Errorf("azure credential: %w", err)
			}
			opts = append(opts, openai.WithAzureCredential(cred))
			return openai.New("", opts...), nil
		}
		opts = append(opts, openai.WithHeaders(map[string]string{"api-key": cfg.AIAPIKey}))
		return openai.New(cfg.AIAPIKey, opts...), nil
	}
}

func printReport(r *scenario.Report) {
	fmt.Printf("\n=== %s: %s ===\n", r.ScenarioID, r.Status())
	fmt.Printf("user: %s (%s, session %s)\n", r.User.UserID, r.User.Department, r.User.SessionID)
	if r.Err != nil {
		fmt.Printf("failed during %s: %v\n", r.Stage(), r.Err)
	} else {
		fmt.Printf("answer: %s\n", r.Answer)
	}
	for _, call := range r.ToolCalls {
		if call.Err != "" {
			fmt.Printf("  tool %-22s error: %s\n", call.Tool, call.Err)
			continue
		}
		fmt.Printf("  tool %-22s %s\n", call.Tool, call.Result)
	}
	if r.Rounds > 0 {
		fmt.Printf("rounds: %d", r.Rounds)
		if r.Resets > 0 {
			fmt.Printf(" (plan reset %d times)", r.Resets)
		}
		fmt.Println()
	}
	if r.Usage.TotalTokens > 0 {
		fmt.Printf("tokens: %d in / %d out\n", r.Usage.InputTokens, r.Usage.OutputTokens)
	}
	fmt.Printf("took %s\n", r.Duration.Round(time.Millisecond))
}
