// Copyright (c) Microsoft. All rights reserved.

package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/contoso/agent-observability/agent"
	"github.com/contoso/agent-observability/identity"
	"github.com/contoso/agent-observability/productapi"
	"github.com/contoso/agent-observability/telemetry"
	"github.com/contoso/agent-observability/toolrpc"
	"github.com/contoso/agent-observability/workflow"
)

// Scenario ids accepted by [Runner.Run].
const (
	SingleAgent = "single-agent"
	MultiAgent  = "multi-agent"
)

// orchestrationMode labels multi-agent runs on spans and metrics.
const orchestrationMode = "manager-worker"

// ProductQuestion is the user request every scenario answers.
const ProductQuestion = "What's the product of the day and is it in stock?"

const agentInstructions = `You are a helpful assistant that can get product information and stock levels.

Your task is to:
1. Get the product of the day
2. Use the product description in your response
3. Look up the stock level for that product using its product_id
4. Provide a comprehensive response including product details and availability

Always use the available functions to get current data.`

const workerInstructions = `You are a worker agent. Use the available functions to carry out the
instruction you are given and report the results concisely.`

// resultLimit caps recorded tool results in reports.
const resultLimit = 500

// Scenarios lists the registered scenario ids in demo order.
func Scenarios() []string {
	return []string{SingleAgent, MultiAgent}
}

// ChatFactory builds the model client for one scenario run.
type ChatFactory func(ctx context.Context) (agent.ChatClient, error)

// Runner owns the lifecycle of demo scenario runs: it mints a request context
// for a roster user, attaches it to the ambient baggage, runs the scenario
// under a root span, and detaches on exit. Sequential runs cycle through the
// directory roster.
type Runner struct {
	api            *productapi.Client
	tools          *toolrpc.Client
	chat           ChatFactory
	directory      *identity.Directory
	recorder       *telemetry.Recorder
	logger         *slog.Logger
	captureContent bool
	userIndex      atomic.Int64
}

// RunnerOption configures a [Runner].
type RunnerOption func(*Runner)

// WithChatFactory sets the factory used to build model clients for each run.
// Defaults to [ScriptedChatFactory], which needs no model backend.
func WithChatFactory(factory ChatFactory) RunnerOption {
	return func(r *Runner) { r.chat = factory }
}

// WithDirectory sets the user roster scenario runs draw identities from.
func WithDirectory(d *identity.Directory) RunnerOption {
	return func(r *Runner) { r.directory = d }
}

// WithRecorder sets the metric recorder for scenario counters.
func WithRecorder(rec *telemetry.Recorder) RunnerOption {
	return func(r *Runner) { r.recorder = rec }
}

// WithLogger sets the runner's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// WithContentCapture enables recording tool results on spans.
func WithContentCapture() RunnerOption {
	return func(r *Runner) { r.captureContent = true }
}

// NewRunner builds a Runner over the given product API and tool server
// clients.
func NewRunner(api *productapi.Client, tools *toolrpc.Client, opts ...RunnerOption) *Runner {
	r := &Runner{
		api:       api,
		tools:     tools,
		chat:      ScriptedChatFactory(),
		directory: identity.NewDirectory(),
		recorder:  telemetry.NewRecorder(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the named scenario for the next roster user and returns its
// report. Failures are carried in [Report.Err] as a [*Error]; the ambient
// request context is always detached before Run returns.
func (r *Runner) Run(ctx context.Context, id string) *Report {
	start := time.Now()
	report := &Report{ScenarioID: id, Type: id}

	if id != SingleAgent && id != MultiAgent {
		report.Err = failure(id, StageSetup, fmt.Errorf("unknown scenario %q", id))
		report.Duration = time.Since(start)
		return report
	}

	user := identity.NewRequestContext(r.directory.At(int(r.userIndex.Add(1)) - 1))
	report.User = user

	ctx, scope, err := telemetry.Attach(ctx, user)
	if err != nil {
		report.Err = failure(id, StageSetup, err)
		report.Duration = time.Since(start)
		return report
	}
	defer func() {
		if derr := scope.Detach(); derr != nil {
			r.logger.ErrorContext(ctx, "scope detach failed", "scenario_id", id, "error", derr)
		}
	}()

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanScenarioRun)
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrScenarioID, id),
		attribute.String(telemetry.AttrScenarioType, report.Type),
		attribute.Bool(telemetry.AttrUserVIP, user.IsVIP()),
	)

	labels := telemetry.ScenarioLabels(user, id, report.Type)
	if id == MultiAgent {
		span.SetAttributes(attribute.String(telemetry.AttrOrchestration, orchestrationMode))
		labels = append(labels, attribute.String(telemetry.AttrOrchestration, orchestrationMode))
	}
	r.recorder.ScenarioRuns(ctx, 1, labels...)

	r.logger.InfoContext(ctx, "scenario starting",
		"scenario_id", id,
		"user_id", user.UserID,
		"vip", user.IsVIP(),
		"department", user.Department,
		"session_id", user.SessionID,
	)

	var runErr error
	switch id {
	case SingleAgent:
		runErr = r.runSingle(ctx, report, labels)
	case MultiAgent:
		runErr = r.runMulti(ctx, report, labels)
	}
	report.Duration = time.Since(start)

	if runErr != nil {
		report.Err = runErr
		telemetry.RecordError(span, runErr)
		r.logger.ErrorContext(ctx, "scenario failed",
			"scenario_id", id,
			"stage", report.Stage(),
			"error", runErr,
		)
		return report
	}

	r.logger.InfoContext(ctx, "scenario completed",
		"scenario_id", id,
		"duration", report.Duration,
		"tool_calls", len(report.ToolCalls),
		"input_tokens", report.Usage.InputTokens,
		"output_tokens", report.Usage.OutputTokens,
	)
	return report
}

// runSingle drives one agent with the full tool set against the product
// question.
func (r *Runner) runSingle(ctx context.Context, report *Report, labels []attribute.KeyValue) error {
	chat, err := r.chat(ctx)
	if err != nil {
		return failure(report.ScenarioID, StageSetup, err)
	}

	tools, err := r.buildTools(ctx)
	if err != nil {
		return failure(report.ScenarioID, StageTools, err)
	}

	worker := r.buildAgent("ProductInfoAgent", agentInstructions, chat, tools, report, labels)

	r.recorder.AgentCalls(ctx, 1, labels...)
	resp, err := worker.Run(ctx, []agent.Message{agent.NewUserMessage(ProductQuestion)})
	if err != nil {
		return failure(report.ScenarioID, StageRun, err)
	}

	report.Answer = resp.Text()
	return nil
}

// runMulti drives the same task through a manager/worker workflow. Manager
// and worker get separate chat clients; worker sub-runs nest under the same
// root span and see the same ambient baggage.
func (r *Runner) runMulti(ctx context.Context, report *Report, labels []attribute.KeyValue) error {
	workerChat, err := r.chat(ctx)
	if err != nil {
		return failure(report.ScenarioID, StageSetup, err)
	}
	managerChat, err := r.chat(ctx)
	if err != nil {
		return failure(report.ScenarioID, StageSetup, err)
	}

	tools, err := r.buildTools(ctx)
	if err != nil {
		return failure(report.ScenarioID, StageTools, err)
	}

	worker := r.buildAgent("Worker", workerInstructions, workerChat, tools, report, labels)
	manager := workflow.NewManager(managerChat)
	orch := workflow.New(manager, worker, workflow.WithLogger(r.logger))

	r.recorder.AgentCalls(ctx, 1, labels...)
	result, err := orch.Run(ctx, ProductQuestion)
	if err != nil {
		return failure(report.ScenarioID, StageRun, err)
	}

	report.Answer = result.Answer
	report.Rounds = result.Rounds
	report.Resets = result.Resets
	return nil
}

// buildTools assembles the scenario tool set: the local product-of-the-day
// tool plus everything the remote tool server advertises.
func (r *Runner) buildTools(ctx context.Context) ([]agent.Tool, error) {
	remote, err := toolrpc.AgentTools(ctx, r.tools)
	if err != nil {
		return nil, err
	}
	tools := make([]agent.Tool, 0, len(remote)+1)
	tools = append(tools, NewProductOfTheDayTool(r.api))
	return append(tools, remote...), nil
}

// buildAgent wires an agent with the standard scenario middleware: tracing,
// run logging, tool-call metrics, and report collection.
func (r *Runner) buildAgent(name, instructions string, chat agent.ChatClient, tools []agent.Tool, report *Report, labels []attribute.KeyValue) *agent.Agent {
	var tracingOpts []agent.TracingOption
	if r.captureContent {
		tracingOpts = append(tracingOpts, agent.WithContentCapture())
	}
	tracing := agent.NewTracing(tracingOpts...)

	return agent.New(chat,
		agent.WithName(name),
		agent.WithInstructions(instructions),
		agent.WithTools(tools...),
		agent.WithAgentMiddleware(tracing.Agent(), agent.LoggingMiddleware(r.logger), collectUsage(report)),
		agent.WithChatMiddleware(tracing.Chat()),
		agent.WithFunctionMiddleware(tracing.Function(), r.recordToolCalls(report, labels)),
	)
}

// recordToolCalls counts tool invocations and captures their outcomes on the
// run report.
func (r *Runner) recordToolCalls(report *Report, labels []attribute.KeyValue) agent.FunctionMiddleware {
	return func(next agent.FunctionHandler) agent.FunctionHandler {
		return func(ctx context.Context, tool agent.Tool, args json.RawMessage) (any, error) {
			r.recorder.ToolCalls(ctx, 1, tool.Name(), labels...)
			result, err := next(ctx, tool, args)

			call := ToolCall{Tool: tool.Name()}
			if err != nil {
				call.Err = err.Error()
			} else {
				call.Result = formatResult(result)
			}
			report.ToolCalls = append(report.ToolCalls, call)
			return result, err
		}
	}
}

// collectUsage accumulates token usage from every agent run into the report.
func collectUsage(report *Report) agent.AgentMiddleware {
	return func(next agent.AgentHandler) agent.AgentHandler {
		return func(ctx context.Context, req *agent.AgentRequest) (*agent.AgentResponse, error) {
			resp, err := next(ctx, req)
			if err == nil {
				report.Usage.Add(resp.Usage)
			}
			return resp, err
		}
	}
}

func formatResult(result any) string {
	var s string
	switch v := result.(type) {
	case string:
		s = v
	case json.RawMessage:
		s = string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		s = string(data)
	}
	if len(s) > resultLimit {
		cut := resultLimit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
