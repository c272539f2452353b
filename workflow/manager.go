// Copyright (c) Microsoft. All rights reserved.

package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/contoso/agent-observability/agent"
)

// Action is the manager's decision for the next step of a run.
type Action string

const (
	// ActionInstruct hands the worker its next instruction.
	ActionInstruct Action = "instruct"

	// ActionFinish ends the run with the manager's final answer.
	ActionFinish Action = "finish"

	// ActionStall declares that no further progress is possible.
	ActionStall Action = "stall"
)

// Decision is one manager reply: what to do next and the text that goes with
// it (an instruction for the worker, or the final answer).
type Decision struct {
	Action  Action `json:"action"`
	Content string `json:"content"`
}

// Round pairs one instruction with the worker's reply.
type Round struct {
	Instruction string
	Reply       string
}

const defaultManagerInstructions = `You are the manager of a worker agent. You break a task into
instructions, review the worker's replies, and produce the final answer once
the task is complete.`

const decisionDirective = `Reply with a single JSON object: {"action": "instruct" | "finish" | "stall", "content": "..."}.
Use "instruct" with the worker's next instruction, "finish" with the final
answer once the task is complete, or "stall" if no progress is possible.`

// Manager drives the orchestration: it plans the task and decides, round by
// round, whether to instruct the worker again or finish.
type Manager struct {
	client       agent.ChatClient
	instructions string
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerInstructions overrides the manager's system instructions.
func WithManagerInstructions(instructions string) ManagerOption {
	return func(m *Manager) { m.instructions = instructions }
}

// NewManager creates a manager backed by the given chat client.
func NewManager(client agent.ChatClient, opts ...ManagerOption) *Manager {
	m := &Manager{
		client:       client,
		instructions: defaultManagerInstructions,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Plan asks the manager model for a short plan for the task.
func (m *Manager) Plan(ctx context.Context, task string) (string, error) {
	prompt := fmt.Sprintf("Create a short step-by-step plan for completing this task:\n\n%s", task)
	resp, err := m.client.GetResponse(ctx, []agent.Message{
		agent.NewSystemMessage(m.instructions),
		agent.NewUserMessage(prompt),
	}, nil)
	if err != nil {
		return "", fmt.Errorf("manager plan: %w", err)
	}
	return resp.Text(), nil
}

// Decide asks the manager model for the next step given the plan and the
// rounds completed so far.
func (m *Manager) Decide(ctx context.Context, task, plan string, history []Round) (*Decision, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\nPlan:\n%s\n", task, plan)
	if len(history) > 0 {
		b.WriteString("\nProgress so far:\n")
		for i, round := range history {
			fmt.Fprintf(&b, "Round %d instruction: %s\n", i+1, round.Instruction)
			fmt.Fprintf(&b, "Round %d worker reply: %s\n", i+1, round.Reply)
		}
	}
	b.WriteString("\nDecide the next step. ")
	b.WriteString(decisionDirective)

	resp, err := m.client.GetResponse(ctx, []agent.Message{
		agent.NewSystemMessage(m.instructions),
		agent.NewUserMessage(b.String()),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("manager decide: %w", err)
	}

	decision := parseDecision(resp.Text())
	return &decision, nil
}

// parseDecision extracts the decision from a model reply. Parsing is
// lenient: the first JSON object found in the text wins, anything else is
// treated as an instruction so one malformed reply cannot sink the run.
func parseDecision(text string) Decision {
	idx := strings.Index(text, "{")
	if idx < 0 {
		return Decision{Action: ActionInstruct, Content: strings.TrimSpace(text)}
	}

	var decision Decision
	decoder := json.NewDecoder(strings.NewReader(text[idx:]))
	if err := decoder.Decode(&decision); err != nil {
		return Decision{Action: ActionInstruct, Content: strings.TrimSpace(text)}
	}

	switch Action(strings.ToLower(string(decision.Action))) {
	case ActionFinish:
		decision.Action = ActionFinish
	case ActionStall:
		decision.Action = ActionStall
	default:
		decision.Action = ActionInstruct
	}
	return decision
}
