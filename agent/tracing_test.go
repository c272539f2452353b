// Copyright (c) Microsoft. All rights reserved.

package agent_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/contoso/agent-observability/agent"
)

func newRecordingProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (string, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func spansByName(spans []sdktrace.ReadOnlySpan, name string) []sdktrace.ReadOnlySpan {
	var out []sdktrace.ReadOnlySpan
	for _, s := range spans {
		if s.Name() == name {
			out = append(out, s)
		}
	}
	return out
}

func tracedAgent(client agent.ChatClient, tr *agent.Tracing, tools ...agent.Tool) *agent.Agent {
	return agent.New(client,
		agent.WithName("traced-agent"),
		agent.WithTools(tools...),
		agent.WithAgentMiddleware(tr.Agent()),
		agent.WithChatMiddleware(tr.Chat()),
		agent.WithFunctionMiddleware(tr.Function()),
	)
}

func TestTracing_SpanShape(t *testing.T) {
	tp, sr := newRecordingProvider(t)
	tr := agent.NewTracing(agent.WithTracerProvider(tp))

	tool := agent.NewTool("lookup", "Looks up a value", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return map[string]any{"value": 42}, nil
		},
	)

	client := newScriptedMock(
		toolCallResponse("c1", "lookup", `{}`),
		textResponse("done"),
	)

	a := tracedAgent(client, tr, tool)
	if _, err := a.Run(context.Background(), []agent.Message{agent.NewUserMessage("go")}); err != nil {
		t.Fatalf("run: %v", err)
	}

	spans := sr.Ended()

	agentSpans := spansByName(spans, "agent.run")
	chatSpans := spansByName(spans, "chat.completions")
	toolSpans := spansByName(spans, "tool.execute")

	if len(agentSpans) != 1 {
		t.Fatalf("agent.run spans = %d, want 1", len(agentSpans))
	}
	if len(chatSpans) != 2 {
		t.Fatalf("chat.completions spans = %d, want 2", len(chatSpans))
	}
	if len(toolSpans) != 1 {
		t.Fatalf("tool.execute spans = %d, want 1", len(toolSpans))
	}

	root := agentSpans[0]
	if name, ok := spanAttr(root, "agent.name"); !ok || name != "traced-agent" {
		t.Errorf("agent.name = %q ok=%v", name, ok)
	}

	// Every span belongs to one trace, parented under agent.run.
	traceID := root.SpanContext().TraceID()
	for _, s := range append(chatSpans, toolSpans...) {
		if s.SpanContext().TraceID() != traceID {
			t.Errorf("span %q in different trace", s.Name())
		}
		if s.Parent().SpanID() != root.SpanContext().SpanID() {
			t.Errorf("span %q not parented under agent.run", s.Name())
		}
	}

	if name, ok := spanAttr(toolSpans[0], "tool.name"); !ok || name != "lookup" {
		t.Errorf("tool.name = %q ok=%v", name, ok)
	}
	if _, ok := spanAttr(toolSpans[0], "tool.result"); ok {
		t.Error("tool.result captured without content capture enabled")
	}
}

func TestTracing_ContentCapture(t *testing.T) {
	tp, sr := newRecordingProvider(t)
	tr := agent.NewTracing(agent.WithTracerProvider(tp), agent.WithContentCapture())

	big := strings.Repeat("x", 1000)
	tool := agent.NewTool("dump", "Returns a long payload", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return big, nil
		},
	)

	client := newScriptedMock(
		toolCallResponse("c1", "dump", `{}`),
		textResponse("done"),
	)

	a := tracedAgent(client, tr, tool)
	if _, err := a.Run(context.Background(), []agent.Message{agent.NewUserMessage("go")}); err != nil {
		t.Fatal(err)
	}

	toolSpans := spansByName(sr.Ended(), "tool.execute")
	if len(toolSpans) != 1 {
		t.Fatalf("tool.execute spans = %d, want 1", len(toolSpans))
	}
	result, ok := spanAttr(toolSpans[0], "tool.result")
	if !ok {
		t.Fatal("tool.result missing with content capture enabled")
	}
	if len(result) != 500 {
		t.Errorf("tool.result length = %d, want truncated to 500", len(result))
	}
}

func TestTracing_ContentCaptureKeepsValidUTF8(t *testing.T) {
	tp, sr := newRecordingProvider(t)
	tr := agent.NewTracing(agent.WithTracerProvider(tp), agent.WithContentCapture())

	// 200 three-byte runes: the 500-byte cap lands mid-rune.
	big := strings.Repeat("€", 200)
	tool := agent.NewTool("dump", "Returns a long multi-byte payload", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return big, nil
		},
	)

	client := newScriptedMock(
		toolCallResponse("c1", "dump", `{}`),
		textResponse("done"),
	)

	a := tracedAgent(client, tr, tool)
	if _, err := a.Run(context.Background(), []agent.Message{agent.NewUserMessage("go")}); err != nil {
		t.Fatal(err)
	}

	toolSpans := spansByName(sr.Ended(), "tool.execute")
	if len(toolSpans) != 1 {
		t.Fatalf("tool.execute spans = %d, want 1", len(toolSpans))
	}
	result, ok := spanAttr(toolSpans[0], "tool.result")
	if !ok {
		t.Fatal("tool.result missing with content capture enabled")
	}
	if !utf8.ValidString(result) {
		t.Error("tool.result is not valid UTF-8 after truncation")
	}
	if len(result) != 498 {
		t.Errorf("tool.result length = %d, want 498 (rune boundary below 500)", len(result))
	}
}

func TestTracing_ToolErrorRecordedOnSpan(t *testing.T) {
	tp, sr := newRecordingProvider(t)
	tr := agent.NewTracing(agent.WithTracerProvider(tp))

	tool := agent.NewTool("broken", "Always fails", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return nil, &agent.ToolError{ToolName: "broken", Message: "backend down"}
		},
	)

	client := newScriptedMock(
		toolCallResponse("c1", "broken", `{}`),
		textResponse("could not look that up"),
	)

	a := tracedAgent(client, tr, tool)
	if _, err := a.Run(context.Background(), []agent.Message{agent.NewUserMessage("go")}); err != nil {
		t.Fatal(err)
	}

	toolSpans := spansByName(sr.Ended(), "tool.execute")
	if len(toolSpans) != 1 {
		t.Fatalf("tool.execute spans = %d, want 1", len(toolSpans))
	}
	if toolSpans[0].Status().Code != codes.Error {
		t.Errorf("tool span status = %v, want Error", toolSpans[0].Status().Code)
	}
	if len(toolSpans[0].Events()) == 0 {
		t.Error("tool span has no recorded error event")
	}
}

func TestTracing_AgentErrorSetsStatus(t *testing.T) {
	tp, sr := newRecordingProvider(t)
	tr := agent.NewTracing(agent.WithTracerProvider(tp))

	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []agent.Message, opts *agent.ChatOptions) (*agent.ChatResponse, error) {
			return nil, &agent.ServiceError{StatusCode: 503, Message: "unavailable", Err: agent.ErrService}
		},
	}

	a := tracedAgent(client, tr)
	if _, err := a.Run(context.Background(), []agent.Message{agent.NewUserMessage("go")}); err == nil {
		t.Fatal("expected error")
	}

	agentSpans := spansByName(sr.Ended(), "agent.run")
	if len(agentSpans) != 1 {
		t.Fatalf("agent.run spans = %d, want 1", len(agentSpans))
	}
	if agentSpans[0].Status().Code != codes.Error {
		t.Errorf("agent span status = %v, want Error", agentSpans[0].Status().Code)
	}
	chatSpans := spansByName(sr.Ended(), "chat.completions")
	if len(chatSpans) != 1 {
		t.Fatalf("chat.completions spans = %d, want 1", len(chatSpans))
	}
	if chatSpans[0].Status().Code != codes.Error {
		t.Errorf("chat span status = %v, want Error", chatSpans[0].Status().Code)
	}
}

func TestTracing_ModelAttrOnChatSpan(t *testing.T) {
	tp, sr := newRecordingProvider(t)
	tr := agent.NewTracing(agent.WithTracerProvider(tp))

	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []agent.Message, opts *agent.ChatOptions) (*agent.ChatResponse, error) {
			resp := textResponse("ok")
			resp.Usage = agent.UsageDetails{InputTokens: 7, OutputTokens: 3, TotalTokens: 10}
			return resp, nil
		},
	}

	a := tracedAgent(client, tr)
	_, err := a.Run(context.Background(),
		[]agent.Message{agent.NewUserMessage("hi")},
		agent.WithRunOptions(&agent.ChatOptions{ModelID: "gpt-4o"}),
	)
	if err != nil {
		t.Fatal(err)
	}

	chatSpans := spansByName(sr.Ended(), "chat.completions")
	if len(chatSpans) != 1 {
		t.Fatalf("chat spans = %d, want 1", len(chatSpans))
	}
	if model, ok := spanAttr(chatSpans[0], "gen_ai.request.model"); !ok || model != "gpt-4o" {
		t.Errorf("gen_ai.request.model = %q ok=%v", model, ok)
	}
	if in, ok := spanAttr(chatSpans[0], "gen_ai.usage.input_tokens"); !ok || in != "7" {
		t.Errorf("input tokens attr = %q ok=%v", in, ok)
	}
}
