// Copyright (c) Microsoft. All rights reserved.

package workflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/contoso/agent-observability/agent"
	"github.com/contoso/agent-observability/telemetry"
	"github.com/contoso/agent-observability/workflow"
)

// scriptedManager answers plan prompts with plan and decide prompts with the
// scripted decisions in order, repeating the last one.
func scriptedManager(plan string, decisions ...string) *workflow.Manager {
	var decides int
	client := agent.ChatClientFunc(func(_ context.Context, messages []agent.Message, _ *agent.ChatOptions) (*agent.ChatResponse, error) {
		prompt := messages[len(messages)-1].Text()
		if strings.Contains(prompt, "step-by-step plan") {
			return textResponse(plan), nil
		}
		i := decides
		if i >= len(decisions) {
			i = len(decisions) - 1
		}
		decides++
		return textResponse(decisions[i]), nil
	})
	return workflow.NewManager(client)
}

// echoWorker replies with the instruction it was given and records how many
// messages each model call saw.
func echoWorker(msgCounts *[]int) *agent.Agent {
	client := agent.ChatClientFunc(func(_ context.Context, messages []agent.Message, _ *agent.ChatOptions) (*agent.ChatResponse, error) {
		if msgCounts != nil {
			*msgCounts = append(*msgCounts, len(messages))
		}
		return textResponse("did: " + messages[len(messages)-1].Text()), nil
	})
	return agent.New(client, agent.WithName("Worker"))
}

// silentWorker always replies with empty text, stalling every round.
func silentWorker(msgCounts *[]int) *agent.Agent {
	client := agent.ChatClientFunc(func(_ context.Context, messages []agent.Message, _ *agent.ChatOptions) (*agent.ChatResponse, error) {
		if msgCounts != nil {
			*msgCounts = append(*msgCounts, len(messages))
		}
		return textResponse(""), nil
	})
	return agent.New(client, agent.WithName("Worker"))
}

func TestOrchestrator_FinishesUnderBudget(t *testing.T) {
	manager := scriptedManager("1. Check the stock",
		`{"action":"instruct","content":"check stock for LAPTOP001"}`,
		`{"action":"finish","content":"LAPTOP001 is in stock"}`,
	)
	orch := workflow.New(manager, echoWorker(nil))

	result, err := orch.Run(context.Background(), "Is LAPTOP001 in stock?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Answer != "LAPTOP001 is in stock" {
		t.Errorf("Answer = %q", result.Answer)
	}
	if result.Rounds != 1 {
		t.Errorf("Rounds = %d, want 1", result.Rounds)
	}
	if result.Resets != 0 {
		t.Errorf("Resets = %d, want 0", result.Resets)
	}
}

func TestOrchestrator_EventOrdering(t *testing.T) {
	manager := scriptedManager("the plan",
		`{"action":"instruct","content":"do the lookup"}`,
		`{"action":"finish","content":"done"}`,
	)
	orch := workflow.New(manager, echoWorker(nil))

	stream := orch.RunStream(context.Background(), "task")
	defer stream.Close()

	var events []workflow.Event
	for {
		event, ok, err := stream.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		events = append(events, event)
	}

	if len(events) != 4 {
		t.Fatalf("events = %d, want 4: %#v", len(events), events)
	}

	plan, ok := events[0].(workflow.PlanEvent)
	if !ok || plan.Plan != "the plan" {
		t.Errorf("events[0] = %#v", events[0])
	}
	instr, ok := events[1].(workflow.InstructionEvent)
	if !ok || instr.Round != 1 || instr.Instruction != "do the lookup" {
		t.Errorf("events[1] = %#v", events[1])
	}
	reply, ok := events[2].(workflow.WorkerReplyEvent)
	if !ok || reply.Round != 1 || reply.Reply != "did: do the lookup" {
		t.Errorf("events[2] = %#v", events[2])
	}
	final, ok := events[3].(workflow.FinalEvent)
	if !ok || final.Answer != "done" || final.Rounds != 1 {
		t.Errorf("events[3] = %#v", events[3])
	}
}

func TestOrchestrator_RoundLimit(t *testing.T) {
	var counts []int
	manager := scriptedManager("plan",
		`{"action":"instruct","content":"step one"}`,
		`{"action":"instruct","content":"step two"}`,
		`{"action":"instruct","content":"step three"}`,
	)
	orch := workflow.New(manager, echoWorker(&counts),
		workflow.WithLimits(workflow.Limits{MaxRounds: 2, MaxStalls: 3, MaxResets: 2}),
	)

	_, err := orch.Run(context.Background(), "task")
	if !errors.Is(err, workflow.ErrRoundLimit) {
		t.Fatalf("err = %v, want ErrRoundLimit", err)
	}
	if !errors.Is(err, workflow.ErrWorkflow) {
		t.Errorf("err = %v, want ErrWorkflow in chain", err)
	}
	if len(counts) != 2 {
		t.Errorf("worker rounds = %d, want 2", len(counts))
	}
}

func TestOrchestrator_ManagerStalls(t *testing.T) {
	var counts []int
	manager := scriptedManager("plan", `{"action":"stall","content":"stuck"}`)
	orch := workflow.New(manager, echoWorker(&counts),
		workflow.WithLimits(workflow.Limits{MaxRounds: 10, MaxStalls: 1, MaxResets: 1}),
	)

	_, err := orch.Run(context.Background(), "task")
	if !errors.Is(err, workflow.ErrStalled) {
		t.Fatalf("err = %v, want ErrStalled", err)
	}
	if len(counts) != 0 {
		t.Errorf("worker ran %d times on a manager that only stalls", len(counts))
	}
}

func TestOrchestrator_EmptyRepliesResetThenFail(t *testing.T) {
	var counts []int
	manager := scriptedManager("plan", `{"action":"instruct","content":"try again"}`)
	orch := workflow.New(manager, silentWorker(&counts),
		workflow.WithLimits(workflow.Limits{MaxRounds: 10, MaxStalls: 1, MaxResets: 1}),
	)

	stream := orch.RunStream(context.Background(), "task")
	defer stream.Close()

	var resets int
	var runErr error
	for {
		event, ok, err := stream.Next(context.Background())
		if err != nil {
			runErr = err
			break
		}
		if !ok {
			break
		}
		if _, isReset := event.(workflow.ResetEvent); isReset {
			resets++
		}
	}

	if !errors.Is(runErr, workflow.ErrStalled) {
		t.Fatalf("err = %v, want ErrStalled", runErr)
	}
	if resets != 1 {
		t.Errorf("reset events = %d, want 1", resets)
	}

	// The transcript restarts after the reset: rounds 1 and 3 see only the
	// fresh instruction, rounds 2 and 4 see the accumulated exchange.
	want := []int{1, 3, 1, 3}
	if len(counts) != len(want) {
		t.Fatalf("worker message counts = %v, want %v", counts, want)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %d, want %d", i, counts[i], want[i])
		}
	}
}

func TestOrchestrator_ManagerError(t *testing.T) {
	failing := workflow.NewManager(agent.ChatClientFunc(
		func(context.Context, []agent.Message, *agent.ChatOptions) (*agent.ChatResponse, error) {
			return nil, errors.New("model offline")
		}))
	orch := workflow.New(failing, echoWorker(nil))

	_, err := orch.Run(context.Background(), "task")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model offline") {
		t.Errorf("err = %v", err)
	}
}

func TestOrchestrator_RunSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	tracing := agent.NewTracing(agent.WithTracerProvider(tp))
	client := agent.ChatClientFunc(func(_ context.Context, messages []agent.Message, _ *agent.ChatOptions) (*agent.ChatResponse, error) {
		return textResponse("did it"), nil
	})
	worker := agent.New(client,
		agent.WithName("Worker"),
		agent.WithAgentMiddleware(tracing.Agent()),
	)

	manager := scriptedManager("plan",
		`{"action":"instruct","content":"go"}`,
		`{"action":"finish","content":"done"}`,
	)
	orch := workflow.New(manager, worker)

	if _, err := orch.Run(context.Background(), "task"); err != nil {
		t.Fatal(err)
	}

	var runSpan, agentSpan sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		switch span.Name() {
		case telemetry.SpanWorkflowRun:
			runSpan = span
		case telemetry.SpanAgentRun:
			agentSpan = span
		}
	}
	if runSpan == nil {
		t.Fatal("no workflow.run span")
	}
	if agentSpan == nil {
		t.Fatal("no agent.run span")
	}

	if agentSpan.SpanContext().TraceID() != runSpan.SpanContext().TraceID() {
		t.Error("worker span is in a different trace")
	}
	if agentSpan.Parent().SpanID() != runSpan.SpanContext().SpanID() {
		t.Error("worker span is not parented under workflow.run")
	}

	attrs := make(map[string]string)
	for _, kv := range runSpan.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs[telemetry.AttrRounds] != "1" {
		t.Errorf("workflow.rounds = %q", attrs[telemetry.AttrRounds])
	}
	if attrs[telemetry.AttrResets] != "0" {
		t.Errorf("workflow.resets = %q", attrs[telemetry.AttrResets])
	}
}

func TestEventStream_Close(t *testing.T) {
	manager := scriptedManager("plan", `{"action":"instruct","content":"loop"}`)
	orch := workflow.New(manager, echoWorker(nil),
		workflow.WithLimits(workflow.Limits{MaxRounds: 1000, MaxStalls: 1000, MaxResets: 2}),
	)

	stream := orch.RunStream(context.Background(), "task")

	if _, ok, err := stream.Next(context.Background()); !ok || err != nil {
		t.Fatalf("first Next: ok=%v err=%v", ok, err)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, ok, _ := stream.Next(context.Background()); ok {
		t.Error("Next returned an event after Close")
	}
}
