// Copyright (c) Microsoft. All rights reserved.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/contoso/agent-observability/telemetry"
)

// tracerName is the instrumentation scope for spans emitted by this package.
const tracerName = "github.com/contoso/agent-observability/agent"

// toolResultLimit caps the length of captured tool results on spans.
const toolResultLimit = 500

// Tracing produces middleware that wraps agent runs, model calls, and tool
// invocations in spans. Payload content (tool results) is only recorded when
// content capture is enabled.
type Tracing struct {
	tracer         trace.Tracer
	captureContent bool
}

// TracingOption configures [NewTracing].
type TracingOption func(*tracingConfig)

type tracingConfig struct {
	provider       trace.TracerProvider
	captureContent bool
}

// WithTracerProvider sets the provider used to create the tracer.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *tracingConfig) { c.provider = tp }
}

// WithContentCapture enables recording tool results on spans. Leave disabled
// unless telemetry is allowed to carry payload content.
func WithContentCapture() TracingOption {
	return func(c *tracingConfig) { c.captureContent = true }
}

// NewTracing builds a [Tracing] instrumentation helper.
func NewTracing(opts ...TracingOption) *Tracing {
	cfg := &tracingConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.provider == nil {
		cfg.provider = otel.GetTracerProvider()
	}
	return &Tracing{
		tracer:         cfg.provider.Tracer(tracerName),
		captureContent: cfg.captureContent,
	}
}

// Agent returns middleware that wraps each run in an agent span.
func (t *Tracing) Agent() AgentMiddleware {
	return func(next AgentHandler) AgentHandler {
		return func(ctx context.Context, req *AgentRequest) (*AgentResponse, error) {
			ctx, span := t.tracer.Start(ctx, telemetry.SpanAgentRun,
				trace.WithAttributes(attribute.String(telemetry.AttrAgentName, req.Agent.Name())),
			)
			defer span.End()

			resp, err := next(ctx, req)
			if err != nil {
				telemetry.RecordError(span, err)
				return nil, err
			}

			span.SetAttributes(
				attribute.Int64(telemetry.AttrInputTokens, resp.Usage.InputTokens),
				attribute.Int64(telemetry.AttrOutputTokens, resp.Usage.OutputTokens),
			)
			return resp, nil
		}
	}
}

// Chat returns middleware that wraps each model call in a completion span.
func (t *Tracing) Chat() ChatMiddleware {
	return func(next ChatHandler) ChatHandler {
		return func(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error) {
			var attrs []attribute.KeyValue
			if opts != nil && opts.ModelID != "" {
				attrs = append(attrs, attribute.String(telemetry.AttrModelName, opts.ModelID))
			}
			ctx, span := t.tracer.Start(ctx, telemetry.SpanChatComplete, trace.WithAttributes(attrs...))
			defer span.End()

			resp, err := next(ctx, messages, opts)
			if err != nil {
				telemetry.RecordError(span, err)
				return nil, err
			}

			span.SetAttributes(
				attribute.Int64(telemetry.AttrInputTokens, resp.Usage.InputTokens),
				attribute.Int64(telemetry.AttrOutputTokens, resp.Usage.OutputTokens),
			)
			return resp, nil
		}
	}
}

// Function returns middleware that wraps each tool invocation in a span.
func (t *Tracing) Function() FunctionMiddleware {
	return func(next FunctionHandler) FunctionHandler {
		return func(ctx context.Context, tool Tool, args json.RawMessage) (any, error) {
			ctx, span := t.tracer.Start(ctx, telemetry.SpanToolExecute,
				trace.WithAttributes(attribute.String(telemetry.AttrToolName, tool.Name())),
			)
			defer span.End()

			result, err := next(ctx, tool, args)
			if err != nil {
				telemetry.RecordError(span, err)
				return result, err
			}

			if t.captureContent {
				span.SetAttributes(attribute.String(telemetry.AttrToolResult, formatToolResult(result)))
			}
			return result, nil
		}
	}
}

// formatToolResult renders a tool result as JSON truncated to toolResultLimit.
func formatToolResult(result any) string {
	var s string
	switch v := result.(type) {
	case string:
		s = v
	case json.RawMessage:
		s = string(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			s = fmt.Sprintf("%v", v)
		} else {
			s = string(b)
		}
	}
	return truncate(s, toolResultLimit)
}

// truncate trims s to at most limit bytes, backing up so the cut never
// splits a multi-byte UTF-8 rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
