// Copyright (c) Microsoft. All rights reserved.

package telemetry

import (
	"context"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type violationLog struct {
	spans []string
	open  []int
}

func (v *violationLog) record(spanName string, openChildren int) {
	v.spans = append(v.spans, spanName)
	v.open = append(v.open, openChildren)
}

func TestGuardQuietOnProperNesting(t *testing.T) {
	v := &violationLog{}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewLifecycleGuard(v.record)),
	)
	tracer := provider.Tracer("test")

	ctx, root := tracer.Start(context.Background(), "scenario.run")
	_, child := tracer.Start(ctx, "tool.execute")
	child.End()
	root.End()

	if len(v.spans) != 0 {
		t.Errorf("violations = %v, want none", v.spans)
	}
}

func TestGuardReportsParentEndingFirst(t *testing.T) {
	v := &violationLog{}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewLifecycleGuard(v.record)),
	)
	tracer := provider.Tracer("test")

	ctx, root := tracer.Start(context.Background(), "scenario.run")
	_, child := tracer.Start(ctx, "tool.execute")
	root.End()
	child.End()

	if len(v.spans) != 1 {
		t.Fatalf("violations = %v, want exactly one", v.spans)
	}
	if v.spans[0] != "scenario.run" {
		t.Errorf("violating span = %q, want scenario.run", v.spans[0])
	}
	if v.open[0] != 1 {
		t.Errorf("open children = %d, want 1", v.open[0])
	}
}

func TestGuardCountsAllOpenChildren(t *testing.T) {
	v := &violationLog{}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewLifecycleGuard(v.record)),
	)
	tracer := provider.Tracer("test")

	ctx, root := tracer.Start(context.Background(), "scenario.run")
	_, childA := tracer.Start(ctx, "tool.execute")
	_, childB := tracer.Start(ctx, "tool.execute")
	root.End()
	childA.End()
	childB.End()

	if len(v.spans) != 1 || v.open[0] != 2 {
		t.Fatalf("violations = %v open = %v, want one violation with 2 open children", v.spans, v.open)
	}
}

func TestStrictViolationPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("StrictViolation should panic")
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, "scenario.run") {
			t.Errorf("panic = %v, want message naming the span", r)
		}
	}()
	StrictViolation("scenario.run", 1)
}
