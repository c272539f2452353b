// Copyright (c) Microsoft. All rights reserved.

package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/contoso/agent-observability/agent"
	"github.com/contoso/agent-observability/telemetry"
)

// Limits bounds an orchestration run. The zero value is not usable; start
// from DefaultLimits.
type Limits struct {
	// MaxRounds is the number of worker rounds allowed before the run fails
	// with ErrRoundLimit.
	MaxRounds int

	// MaxStalls is the number of consecutive stalled rounds tolerated before
	// the transcript is reset.
	MaxStalls int

	// MaxResets is the number of resets allowed before the run fails with
	// ErrStalled.
	MaxResets int
}

// DefaultLimits returns the standard budget: 10 rounds, 3 stalls, 2 resets.
func DefaultLimits() Limits {
	return Limits{
		MaxRounds: 10,
		MaxStalls: 3,
		MaxResets: 2,
	}
}

// Result is the outcome of a completed orchestration run.
type Result struct {
	Answer string
	Rounds int
	Resets int
}

// Orchestrator runs a manager/worker loop: the manager plans and instructs,
// the worker executes with its tools, and the manager reviews until it can
// produce a final answer.
type Orchestrator struct {
	manager *Manager
	worker  *agent.Agent
	limits  Limits
	logger  *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLimits overrides the default run budget.
func WithLimits(limits Limits) Option {
	return func(o *Orchestrator) { o.limits = limits }
}

// WithLogger sets the logger for round-by-round progress.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// New creates an orchestrator for the given manager and worker.
func New(manager *Manager, worker *agent.Agent, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		manager: manager,
		worker:  worker,
		limits:  DefaultLimits(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the orchestration to completion and returns the final answer.
func (o *Orchestrator) Run(ctx context.Context, task string) (*Result, error) {
	stream := o.RunStream(ctx, task)
	defer stream.Close()
	return stream.Final(ctx)
}

// RunStream executes the orchestration and surfaces progress as events. The
// run fails with ErrRoundLimit or ErrStalled when its budget is exhausted.
func (o *Orchestrator) RunStream(ctx context.Context, task string) *EventStream {
	return newEventStream(ctx, func(ctx context.Context, ch chan<- Event) error {
		return o.run(ctx, task, ch)
	})
}

func (o *Orchestrator) run(ctx context.Context, task string, ch chan<- Event) (rerr error) {
	var rounds, stalls, resets int

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanWorkflowRun)
	defer func() {
		span.SetAttributes(
			attribute.Int(telemetry.AttrRounds, rounds),
			attribute.Int(telemetry.AttrResets, resets),
		)
		telemetry.RecordError(span, rerr)
		span.End()
	}()

	emit := func(event Event) error {
		select {
		case ch <- event:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	plan, err := o.manager.Plan(ctx, task)
	if err != nil {
		return err
	}
	o.logger.InfoContext(ctx, "workflow plan ready", "task", task)
	if err := emit(PlanEvent{Plan: plan}); err != nil {
		return err
	}

	conversation := agent.NewConversation()
	var history []Round
	var lastReply string

	for {
		if rounds >= o.limits.MaxRounds {
			return fmt.Errorf("%w: no answer after %d rounds", ErrRoundLimit, rounds)
		}

		decision, err := o.manager.Decide(ctx, task, plan, history)
		if err != nil {
			return err
		}

		switch decision.Action {
		case ActionFinish:
			o.logger.InfoContext(ctx, "workflow finished",
				"rounds", rounds,
				"resets", resets,
			)
			return emit(FinalEvent{Answer: decision.Content, Rounds: rounds, Resets: resets})

		case ActionStall:
			o.logger.WarnContext(ctx, "manager declared a stall", "stalls", stalls+1)
			stalls++

		case ActionInstruct:
			rounds++
			if err := emit(InstructionEvent{Round: rounds, Instruction: decision.Content}); err != nil {
				return err
			}

			resp, err := o.worker.Run(ctx,
				[]agent.Message{agent.NewUserMessage(decision.Content)},
				agent.WithConversation(conversation),
			)
			if err != nil {
				return fmt.Errorf("worker round %d: %w", rounds, err)
			}

			reply := resp.Text()
			if err := emit(WorkerReplyEvent{Round: rounds, Reply: reply}); err != nil {
				return err
			}

			if reply == "" || reply == lastReply {
				stalls++
				o.logger.WarnContext(ctx, "stalled round",
					"round", rounds,
					"stalls", stalls,
				)
			} else {
				stalls = 0
				lastReply = reply
			}
			history = append(history, Round{Instruction: decision.Content, Reply: reply})
		}

		if stalls > o.limits.MaxStalls {
			resets++
			if resets > o.limits.MaxResets {
				return fmt.Errorf("%w: %d resets exhausted", ErrStalled, resets-1)
			}

			o.logger.WarnContext(ctx, "resetting workflow", "resets", resets)
			if err := emit(ResetEvent{Resets: resets}); err != nil {
				return err
			}

			conversation.Clear()
			history = nil
			lastReply = ""
			stalls = 0

			plan, err = o.manager.Plan(ctx, task)
			if err != nil {
				return err
			}
			if err := emit(PlanEvent{Plan: plan}); err != nil {
				return err
			}
		}
	}
}
