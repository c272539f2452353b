// Copyright (c) Microsoft. All rights reserved.

package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/contoso/agent-observability/identity"
)

// Recorder emits the demo's counters. Unlike spans, metric dimensions are
// not projected from baggage: metric backends want every label key declared
// statically per counter, so callers pass the request context explicitly
// through ScenarioLabels.
//
// A Recorder built before Setup, or in a process with telemetry disabled,
// records into the no-op meter; every method stays safe to call and does
// nothing. Counter creation failures degrade the affected counter to a
// no-op instead of failing the caller.
type Recorder struct {
	agentCalls   metric.Int64Counter
	toolCalls    metric.Int64Counter
	scenarioRuns metric.Int64Counter
}

// NewRecorder builds the counter set from the globally registered meter
// provider.
func NewRecorder() *Recorder {
	meter := otel.Meter(instrumentationName,
		metric.WithInstrumentationVersion(instrumentationVersion))

	return &Recorder{
		agentCalls: int64Counter(meter, MetricAgentCalls,
			"Agent invocations, tagged with identity and scenario dimensions.", "{call}"),
		toolCalls: int64Counter(meter, MetricToolCalls,
			"Tool executions, tagged with identity, scenario, and tool dimensions.", "{call}"),
		scenarioRuns: int64Counter(meter, MetricScenarioRuns,
			"Scenario runs started.", "{run}"),
	}
}

func int64Counter(meter metric.Meter, name, description, unit string) metric.Int64Counter {
	counter, err := meter.Int64Counter(name,
		metric.WithDescription(description),
		metric.WithUnit(unit))
	if err != nil {
		slog.Warn("counter unavailable, recording disabled", "counter", name, "error", err)
		return noop.Int64Counter{}
	}
	return counter
}

// AgentCalls adds n agent invocations with the given dimension labels.
func (r *Recorder) AgentCalls(ctx context.Context, n int64, labels ...attribute.KeyValue) {
	r.agentCalls.Add(ctx, n, metric.WithAttributes(labels...))
}

// ToolCalls adds n executions of the named tool. The caller's label slice is
// never written to, so a shared label set stays safe across goroutines.
func (r *Recorder) ToolCalls(ctx context.Context, n int64, toolName string, labels ...attribute.KeyValue) {
	attrs := make([]attribute.KeyValue, 0, len(labels)+1)
	attrs = append(attrs, labels...)
	attrs = append(attrs, attribute.String(AttrToolName, toolName))
	r.toolCalls.Add(ctx, n, metric.WithAttributes(attrs...))
}

// ScenarioRuns adds n scenario starts.
func (r *Recorder) ScenarioRuns(ctx context.Context, n int64, labels ...attribute.KeyValue) {
	r.scenarioRuns.Add(ctx, n, metric.WithAttributes(labels...))
}

// ScenarioLabels builds the dimension set shared by all demo counters from
// the request context plus the scenario identifiers. The serialized values
// match what the BaggageProjector writes onto spans, so traces and metrics
// aggregate along the same axes.
func ScenarioLabels(rc identity.RequestContext, scenarioID, scenarioType string) []attribute.KeyValue {
	labels := []attribute.KeyValue{
		attribute.String(KeyUserID, rc.UserID),
		attribute.Bool(AttrUserVIP, rc.IsVIP()),
		attribute.String(KeySessionID, rc.SessionID),
		attribute.String(AttrScenarioID, scenarioID),
		attribute.String(AttrScenarioType, scenarioType),
	}
	if rc.Department != "" {
		labels = append(labels, attribute.String(KeyDepartment, rc.Department))
	}
	if roles := FormatRoles(rc); roles != "" {
		labels = append(labels, attribute.String(KeyUserRoles, roles))
	}
	return labels
}
