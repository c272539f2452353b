// Copyright (c) Microsoft. All rights reserved.

package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Agent is the top-level conversational agent. It composes a [ChatClient]
// with tools, middleware, and an optional [Conversation] transcript.
//
// Create one with [New] and functional options:
//
//	a := agent.New(client,
//	    agent.WithName("ProductInfoAgent"),
//	    agent.WithInstructions("You are a helpful assistant."),
//	    agent.WithTools(stockTool),
//	)
type Agent struct {
	id                 string
	name               string
	description        string
	client             ChatClient
	instructions       string
	tools              []Tool
	defaultOptions     *ChatOptions
	agentMiddleware    []AgentMiddleware
	chatMiddleware     []ChatMiddleware
	functionMiddleware []FunctionMiddleware
	invocationConfig   InvocationConfig
}

// Option configures an [Agent] via [New].
type Option func(*Agent)

// WithName sets the agent's display name.
func WithName(name string) Option {
	return func(a *Agent) { a.name = name }
}

// WithDescription sets the agent's description.
func WithDescription(desc string) Option {
	return func(a *Agent) { a.description = desc }
}

// WithInstructions sets the system instructions for the agent.
func WithInstructions(instructions string) Option {
	return func(a *Agent) { a.instructions = instructions }
}

// WithTools adds tools to the agent's default tool set.
func WithTools(tools ...Tool) Option {
	return func(a *Agent) { a.tools = append(a.tools, tools...) }
}

// WithDefaultOptions sets default [ChatOptions] for all requests.
func WithDefaultOptions(opts *ChatOptions) Option {
	return func(a *Agent) { a.defaultOptions = opts }
}

// WithAgentMiddleware adds [AgentMiddleware] to the agent pipeline.
func WithAgentMiddleware(mws ...AgentMiddleware) Option {
	return func(a *Agent) { a.agentMiddleware = append(a.agentMiddleware, mws...) }
}

// WithChatMiddleware adds [ChatMiddleware] around every model call.
func WithChatMiddleware(mws ...ChatMiddleware) Option {
	return func(a *Agent) { a.chatMiddleware = append(a.chatMiddleware, mws...) }
}

// WithFunctionMiddleware adds [FunctionMiddleware] to the tool invocation pipeline.
func WithFunctionMiddleware(mws ...FunctionMiddleware) Option {
	return func(a *Agent) { a.functionMiddleware = append(a.functionMiddleware, mws...) }
}

// WithInvocationConfig overrides the default [InvocationConfig] for the
// function calling loop.
func WithInvocationConfig(cfg InvocationConfig) Option {
	return func(a *Agent) { a.invocationConfig = cfg }
}

// New creates an Agent with the given [ChatClient] and options.
func New(client ChatClient, opts ...Option) *Agent {
	a := &Agent{
		id:               uuid.NewString(),
		client:           client,
		invocationConfig: DefaultInvocationConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ID returns the agent's unique identifier.
func (a *Agent) ID() string { return a.id }

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's description.
func (a *Agent) Description() string { return a.description }

// Tools returns the agent's default tool set.
func (a *Agent) Tools() []Tool { return a.tools }

// RunOption configures a single [Agent.Run] call.
type RunOption func(*runConfig)

type runConfig struct {
	conversation *Conversation
	tools        []Tool
	options      *ChatOptions
}

// WithConversation attaches a [Conversation] so the run sees prior turns and
// records its own.
func WithConversation(c *Conversation) RunOption {
	return func(cfg *runConfig) { cfg.conversation = c }
}

// WithRunTools provides per-call tool overrides (merged with agent defaults).
func WithRunTools(tools ...Tool) RunOption {
	return func(cfg *runConfig) { cfg.tools = tools }
}

// WithRunOptions provides per-call [ChatOptions] overrides.
func WithRunOptions(opts *ChatOptions) RunOption {
	return func(cfg *runConfig) { cfg.options = opts }
}

// Run sends messages to the agent and returns a complete response, invoking
// tools as the model requests them until it produces a final text answer.
func (a *Agent) Run(ctx context.Context, messages []Message, opts ...RunOption) (*AgentResponse, error) {
	cfg := &runConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := chainMiddleware(a.buildHandler(cfg), a.agentMiddleware...)

	return handler(ctx, &AgentRequest{
		Agent:    a,
		Messages: messages,
		Options:  cfg.options,
	})
}

func (a *Agent) prepareChatOptions(cfg *runConfig) *ChatOptions {
	opts := MergeChatOptions(a.defaultOptions, cfg.options)

	allTools := make([]Tool, 0, len(a.tools)+len(cfg.tools))
	allTools = append(allTools, a.tools...)
	allTools = append(allTools, cfg.tools...)
	if len(allTools) > 0 {
		opts.Tools = allTools
	}

	if a.instructions != "" {
		if opts.Instructions != "" {
			opts.Instructions = a.instructions + "\n" + opts.Instructions
		} else {
			opts.Instructions = a.instructions
		}
	}

	return opts
}

func (a *Agent) prepareMessages(messages []Message, cfg *runConfig, opts *ChatOptions) []Message {
	var all []Message
	if cfg.conversation != nil {
		all = append(all, cfg.conversation.Messages()...)
	}
	all = append(all, messages...)
	return PrependInstructions(all, opts.Instructions)
}

func (a *Agent) buildHandler(cfg *runConfig) AgentHandler {
	return func(ctx context.Context, req *AgentRequest) (*AgentResponse, error) {
		chatOpts := a.prepareChatOptions(cfg)
		allMessages := a.prepareMessages(req.Messages, cfg, chatOpts)

		slog.DebugContext(ctx, "agent run",
			"agent_id", a.id,
			"agent_name", a.name,
			"message_count", len(allMessages),
			"tool_count", len(chatOpts.Tools),
		)

		chat := chainMiddleware[ChatHandler](a.client.GetResponse, a.chatMiddleware...)

		final, produced, usage, err := invokeFunctions(ctx, chat, allMessages, chatOpts, a.invocationConfig, a.functionMiddleware)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecution, err)
		}

		if cfg.conversation != nil {
			cfg.conversation.Append(req.Messages...)
			cfg.conversation.Append(produced...)
		}

		return &AgentResponse{
			Messages:   produced,
			ResponseID: final.ResponseID,
			AgentID:    a.id,
			Usage:      usage,
		}, nil
	}
}
