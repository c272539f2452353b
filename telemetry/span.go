// Copyright (c) Microsoft. All rights reserved.

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns the module's tracer from the globally registered provider.
// Before Setup (or with telemetry disabled) this is the no-op tracer, and
// spans started from it cost nothing and go nowhere.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName,
		trace.WithInstrumentationVersion(instrumentationVersion))
}

// StartSpan begins a span named name whose parent is the span current in
// ctx, and returns the derived context in which the new span is current.
// Callers end the span with defer so it closes on every exit path:
//
//	ctx, span := telemetry.StartSpan(ctx, "tool.execute")
//	defer span.End()
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// RecordError marks the span failed and stores the error for export. It
// never alters control flow; the caller still decides whether to propagate.
// A nil error is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
