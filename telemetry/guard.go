// Copyright (c) Microsoft. All rights reserved.

package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// ViolationFunc is called by the LifecycleGuard when a span ends while some
// of its children are still open.
type ViolationFunc func(spanName string, openChildren int)

// LifecycleGuard is a span processor that checks the nesting discipline: a
// parent span must outlive every child started under it. The SDK fixes
// parenting at start time, so a violation cannot corrupt the exported tree;
// the guard exists to surface the broken scope (a missing defer, an End on
// the wrong goroutine) close to where it happened.
//
// The default violation handler logs a warning. Debug configurations install
// StrictViolation to fail fast instead.
type LifecycleGuard struct {
	mu        sync.Mutex
	nodes     map[trace.SpanID]*guardNode
	violation ViolationFunc
}

type guardNode struct {
	name     string
	parent   trace.SpanID
	children int
}

var _ sdktrace.SpanProcessor = (*LifecycleGuard)(nil)

// NewLifecycleGuard returns a guard reporting violations to onViolation, or
// to a warning log when onViolation is nil.
func NewLifecycleGuard(onViolation ViolationFunc) *LifecycleGuard {
	if onViolation == nil {
		onViolation = func(spanName string, openChildren int) {
			slog.Warn("span ended before its children",
				"span", spanName,
				"open_children", openChildren)
		}
	}
	return &LifecycleGuard{
		nodes:     make(map[trace.SpanID]*guardNode),
		violation: onViolation,
	}
}

// StrictViolation panics on the first ordering violation. Only for debug
// setups that prefer an immediate failure over a warning.
func StrictViolation(spanName string, openChildren int) {
	panic(fmt.Sprintf("telemetry: span %q ended with %d children still open", spanName, openChildren))
}

// OnStart records the new span and charges it to its parent, when the parent
// is still tracked.
func (g *LifecycleGuard) OnStart(_ context.Context, s sdktrace.ReadWriteSpan) {
	sc := s.SpanContext()
	if !sc.HasSpanID() {
		return
	}
	node := &guardNode{name: s.Name(), parent: s.Parent().SpanID()}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[sc.SpanID()] = node
	if parent, ok := g.nodes[node.parent]; ok {
		parent.children++
	}
}

// OnEnd checks the ended span for open children and settles its charge
// against the parent.
func (g *LifecycleGuard) OnEnd(s sdktrace.ReadOnlySpan) {
	id := s.SpanContext().SpanID()

	g.mu.Lock()
	node, ok := g.nodes[id]
	if !ok {
		g.mu.Unlock()
		return
	}
	delete(g.nodes, id)
	if parent, ok := g.nodes[node.parent]; ok && parent.children > 0 {
		parent.children--
	}
	open := node.children
	g.mu.Unlock()

	if open > 0 {
		g.violation(node.name, open)
	}
}

// Shutdown implements sdktrace.SpanProcessor.
func (g *LifecycleGuard) Shutdown(context.Context) error { return nil }

// ForceFlush implements sdktrace.SpanProcessor.
func (g *LifecycleGuard) ForceFlush(context.Context) error { return nil }
