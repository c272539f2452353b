// Copyright (c) Microsoft. All rights reserved.

package agent_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/contoso/agent-observability/agent"
)

func TestAgent_BasicRun(t *testing.T) {
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []agent.Message, opts *agent.ChatOptions) (*agent.ChatResponse, error) {
			return &agent.ChatResponse{
				Messages:   []agent.Message{agent.NewAssistantMessage("I'm here to help!")},
				ResponseID: "resp-1",
				Usage:      agent.UsageDetails{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
			}, nil
		},
	}

	a := agent.New(client,
		agent.WithName("test-agent"),
		agent.WithInstructions("You are helpful."),
	)

	if a.Name() != "test-agent" {
		t.Errorf("Name = %q", a.Name())
	}
	if a.ID() == "" {
		t.Error("ID should not be empty")
	}

	resp, err := a.Run(context.Background(), []agent.Message{agent.NewUserMessage("hi")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if resp.Text() != "I'm here to help!" {
		t.Errorf("Text = %q", resp.Text())
	}
	if resp.AgentID != a.ID() {
		t.Errorf("AgentID = %q, want %q", resp.AgentID, a.ID())
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d", resp.Usage.TotalTokens)
	}
}

func TestAgent_PrependsInstructions(t *testing.T) {
	var firstMessage agent.Message
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []agent.Message, opts *agent.ChatOptions) (*agent.ChatResponse, error) {
			firstMessage = msgs[0]
			return textResponse("ok"), nil
		},
	}

	a := agent.New(client, agent.WithInstructions("Be terse."))
	if _, err := a.Run(context.Background(), []agent.Message{agent.NewUserMessage("hi")}); err != nil {
		t.Fatal(err)
	}

	if firstMessage.Role != agent.RoleSystem {
		t.Fatalf("first role = %q, want system", firstMessage.Role)
	}
	if firstMessage.Text() != "Be terse." {
		t.Errorf("system text = %q", firstMessage.Text())
	}
}

func TestAgent_WithToolInvocation(t *testing.T) {
	tool := agent.NewTypedTool("add", "Adds two numbers",
		func(ctx context.Context, args struct {
			A int `json:"a"`
			B int `json:"b"`
		}) (any, error) {
			return args.A + args.B, nil
		},
	)

	callCount := 0
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []agent.Message, opts *agent.ChatOptions) (*agent.ChatResponse, error) {
			callCount++
			if callCount == 1 {
				return toolCallResponse("call-1", "add", `{"a":3,"b":4}`), nil
			}
			return textResponse("The answer is 7."), nil
		},
	}

	a := agent.New(client, agent.WithTools(tool))
	resp, err := a.Run(context.Background(), []agent.Message{agent.NewUserMessage("what is 3+4?")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if callCount != 2 {
		t.Errorf("client called %d times, want 2", callCount)
	}
	if resp.Text() != "The answer is 7." {
		t.Errorf("Text = %q", resp.Text())
	}

	// Intermediate tool-call and tool-result messages are part of the response.
	var sawCall, sawResult bool
	for _, m := range resp.Messages {
		if len(m.Contents.FunctionCalls()) > 0 {
			sawCall = true
		}
		if m.Role == agent.RoleTool {
			sawResult = true
		}
	}
	if !sawCall || !sawResult {
		t.Errorf("messages missing tool trace: call=%v result=%v", sawCall, sawResult)
	}
}

func TestAgent_ToolResultFedBackToModel(t *testing.T) {
	tool := agent.NewTool("lookup", "Looks things up", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return map[string]any{"value": 42}, nil
		},
	)

	var secondCallMsgs []agent.Message
	callCount := 0
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []agent.Message, opts *agent.ChatOptions) (*agent.ChatResponse, error) {
			callCount++
			if callCount == 1 {
				return toolCallResponse("c1", "lookup", `{}`), nil
			}
			secondCallMsgs = msgs
			return textResponse("42 it is"), nil
		},
	}

	a := agent.New(client, agent.WithTools(tool))
	if _, err := a.Run(context.Background(), []agent.Message{agent.NewUserMessage("look it up")}); err != nil {
		t.Fatal(err)
	}

	last := secondCallMsgs[len(secondCallMsgs)-1]
	if last.Role != agent.RoleTool {
		t.Fatalf("last message role = %q, want tool", last.Role)
	}
}

func TestAgent_WithConversation(t *testing.T) {
	var lastCallMsgCount int
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []agent.Message, opts *agent.ChatOptions) (*agent.ChatResponse, error) {
			lastCallMsgCount = len(msgs)
			return textResponse("ok"), nil
		},
	}

	a := agent.New(client, agent.WithInstructions("Be helpful"))
	conv := agent.NewConversation()

	if conv.ID() == "" {
		t.Error("conversation ID should not be empty")
	}

	if _, err := a.Run(context.Background(),
		[]agent.Message{agent.NewUserMessage("hello")},
		agent.WithConversation(conv),
	); err != nil {
		t.Fatalf("Run 1: %v", err)
	}

	// system + user
	if lastCallMsgCount != 2 {
		t.Errorf("first call saw %d messages, want 2", lastCallMsgCount)
	}
	if conv.Len() != 2 {
		t.Errorf("conversation has %d messages after turn 1, want 2", conv.Len())
	}

	if _, err := a.Run(context.Background(),
		[]agent.Message{agent.NewUserMessage("what did I say?")},
		agent.WithConversation(conv),
	); err != nil {
		t.Fatalf("Run 2: %v", err)
	}

	// system + turn-1 user + turn-1 assistant + turn-2 user
	if lastCallMsgCount != 4 {
		t.Errorf("second call saw %d messages, want 4", lastCallMsgCount)
	}
}

func TestAgent_RunWithOptions(t *testing.T) {
	var receivedModel string
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []agent.Message, opts *agent.ChatOptions) (*agent.ChatResponse, error) {
			if opts != nil {
				receivedModel = opts.ModelID
			}
			return textResponse("ok"), nil
		},
	}

	a := agent.New(client)
	_, err := a.Run(context.Background(),
		[]agent.Message{agent.NewUserMessage("hi")},
		agent.WithRunOptions(&agent.ChatOptions{ModelID: "gpt-4o-mini"}),
	)
	if err != nil {
		t.Fatal(err)
	}

	if receivedModel != "gpt-4o-mini" {
		t.Errorf("model = %q, want gpt-4o-mini", receivedModel)
	}
}

func TestAgent_ClientErrorWrapped(t *testing.T) {
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []agent.Message, opts *agent.ChatOptions) (*agent.ChatResponse, error) {
			return nil, &agent.ServiceError{StatusCode: 500, Message: "boom", Err: agent.ErrService}
		},
	}

	a := agent.New(client)
	_, err := a.Run(context.Background(), []agent.Message{agent.NewUserMessage("hi")})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, agent.ErrAgent) {
		t.Errorf("error not in ErrAgent family: %v", err)
	}
	var svcErr *agent.ServiceError
	if !errors.As(err, &svcErr) {
		t.Errorf("ServiceError not preserved in chain: %v", err)
	}
}
