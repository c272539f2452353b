// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"context"
	"fmt"
	"io"

	"github.com/contoso/agent-observability/agent"
)

// Client implements [agent.ChatClient] using the OpenAI Chat Completions
// API. Use [New] to create one.
type Client struct {
	tp      transport
	model   string
	handler agent.ChatHandler
}

// Verify interface compliance at compile time.
var _ agent.ChatClient = (*Client)(nil)

// New creates an OpenAI [Client] with the given API key and options.
//
//	client := openai.New(os.Getenv("AI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
func New(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	c := &Client{
		tp:    newHTTPTransport(apiKey, cfg),
		model: cfg.model,
	}
	c.handler = c.coreResponse
	// Apply middleware in order (first = outermost)
	for i := len(cfg.chatMiddleware) - 1; i >= 0; i-- {
		c.handler = cfg.chatMiddleware[i](c.handler)
	}
	return c
}

// newWithTransport creates a Client with a custom transport (for testing).
func newWithTransport(tp transport, model string) *Client {
	c := &Client{tp: tp, model: model}
	c.handler = c.coreResponse
	return c
}

// GetResponse sends a chat completion request and returns the complete response.
func (c *Client) GetResponse(ctx context.Context, messages []agent.Message, opts *agent.ChatOptions) (*agent.ChatResponse, error) {
	return c.handler(ctx, messages, opts)
}

// coreResponse is the base implementation called by the middleware chain.
func (c *Client) coreResponse(ctx context.Context, messages []agent.Message, opts *agent.ChatOptions) (*agent.ChatResponse, error) {
	req := buildRequest(messages, opts, c.model)

	resp, err := c.tp.do(ctx, "POST", "/chat/completions", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", agent.ErrService, err)
	}

	raw, err := unmarshalChatResponse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", agent.ErrInvalidResponse, err)
	}

	return parseChatResponse(raw), nil
}
