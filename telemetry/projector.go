// Copyright (c) Microsoft. All rights reserved.

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// BaggageProjector copies the recognized identity baggage entries onto every
// span the moment it starts. Registered once per process on the tracer
// provider, it is the single point that sees both "a span just started" and
// "this baggage is ambient right now", which is what lets spans created deep
// inside the agent runtime or an instrumented HTTP client carry the request's
// identity without any call site re-attaching it.
//
// Only the closed key set in ProjectedKeys is copied. Keys absent from the
// ambient baggage are omitted, not errors. Spans never project at end time;
// baggage is read exactly once, at start.
type BaggageProjector struct{}

var _ sdktrace.SpanProcessor = BaggageProjector{}

// NewBaggageProjector returns the processor. It is stateless and safe to
// share across tracer providers.
func NewBaggageProjector() BaggageProjector {
	return BaggageProjector{}
}

// OnStart projects the ambient baggage of the span's parent context onto the
// just-started span.
func (BaggageProjector) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	bag := baggage.FromContext(parent)
	if bag.Len() == 0 {
		return
	}
	for _, key := range projectedKeys {
		member := bag.Member(key)
		if member.Key() == "" {
			continue
		}
		s.SetAttributes(attribute.String(key, member.Value()))
	}
}

// OnEnd does nothing; projection happens at start only.
func (BaggageProjector) OnEnd(sdktrace.ReadOnlySpan) {}

// Shutdown implements sdktrace.SpanProcessor.
func (BaggageProjector) Shutdown(context.Context) error { return nil }

// ForceFlush implements sdktrace.SpanProcessor.
func (BaggageProjector) ForceFlush(context.Context) error { return nil }
