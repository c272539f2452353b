// Copyright (c) Microsoft. All rights reserved.

package telemetry

// Instrumentation scope for all telemetry produced by this module.
const (
	instrumentationName    = "github.com/contoso/agent-observability"
	instrumentationVersion = "0.1.0"
)

// Baggage keys recognized by the BaggageProjector. The set is closed:
// projection copies exactly these keys and nothing else.
const (
	KeyUserID     = "user.id"
	KeySessionID  = "session.id"
	KeyDepartment = "organization.department"
	KeyUserRoles  = "user.roles"
)

// projectedKeys is the iteration order for projection and tests.
var projectedKeys = [...]string{KeyUserID, KeySessionID, KeyDepartment, KeyUserRoles}

// ProjectedKeys returns the closed set of baggage keys copied onto spans.
func ProjectedKeys() []string {
	out := make([]string, len(projectedKeys))
	copy(out, projectedKeys[:])
	return out
}

// Span attribute keys shared across packages.
const (
	AttrUserVIP       = "user.vip"
	AttrScenarioID    = "scenario.id"
	AttrScenarioType  = "scenario.type"
	AttrOrchestration = "orchestration"
	AttrAgentName     = "agent.name"
	AttrToolName      = "tool.name"
	AttrToolResult    = "tool.result"
	AttrModelName     = "gen_ai.request.model"
	AttrInputTokens   = "gen_ai.usage.input_tokens"
	AttrOutputTokens  = "gen_ai.usage.output_tokens"
	AttrRPCMethod     = "rpc.method"
	AttrRounds        = "workflow.rounds"
	AttrResets        = "workflow.resets"
)

// Span names emitted by the demo's own instrumentation.
const (
	SpanScenarioRun  = "scenario.run"
	SpanAgentRun     = "agent.run"
	SpanChatComplete = "chat.completions"
	SpanToolExecute  = "tool.execute"
	SpanToolsList    = "mcp.tools.list"
	SpanToolsCall    = "mcp.tools.call"
	SpanWorkflowRun  = "workflow.run"
)

// Counter names.
const (
	MetricAgentCalls   = "agent.calls.total"
	MetricToolCalls    = "tool.calls.total"
	MetricScenarioRuns = "scenario.runs.total"
)
