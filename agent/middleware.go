// Copyright (c) Microsoft. All rights reserved.

package agent

import (
	"context"
	"encoding/json"
)

// AgentHandler processes one agent run end to end. [Agent.Run] builds the
// innermost handler; middleware layers wrap it.
type AgentHandler func(ctx context.Context, req *AgentRequest) (*AgentResponse, error)

// AgentRequest carries a run's inputs through the middleware chain.
type AgentRequest struct {
	Agent    *Agent
	Messages []Message
	Options  *ChatOptions
}

// AgentMiddleware wraps an [AgentHandler] around the whole run. A middleware
// calls next to continue the chain, or returns early to short-circuit.
// [Tracing.Agent] and [LoggingMiddleware] are built on this type.
type AgentMiddleware func(next AgentHandler) AgentHandler

// ChatHandler performs one model round trip. [ChatClient.GetResponse]
// satisfies it directly.
type ChatHandler func(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)

// ChatMiddleware wraps a [ChatHandler] around each model call inside the
// invocation loop.
type ChatMiddleware func(next ChatHandler) ChatHandler

// FunctionHandler invokes one tool with its raw JSON arguments.
type FunctionHandler func(ctx context.Context, tool Tool, args json.RawMessage) (any, error)

// FunctionMiddleware wraps a [FunctionHandler] around each tool invocation.
// The per-tool metric layer the scenario runner installs is one of these.
type FunctionMiddleware func(next FunctionHandler) FunctionHandler

// chainMiddleware folds mws around handler so the first middleware in the
// list becomes the outermost wrapper. All three middleware kinds share this
// shape, so one generic fold serves them all.
func chainMiddleware[H any, M ~func(H) H](handler H, mws ...M) H {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}
