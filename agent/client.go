// Copyright (c) Microsoft. All rights reserved.

package agent

import "context"

// ChatClient is the interface implemented by model backends.
//
// GetResponse sends the full message history and returns the model's reply.
// Implementations must honor ctx cancellation and return errors from the
// [ErrService] family for backend failures.
type ChatClient interface {
	GetResponse(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)
}

// ChatClientFunc adapts a function to the [ChatClient] interface.
type ChatClientFunc func(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)

// GetResponse calls f.
func (f ChatClientFunc) GetResponse(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error) {
	return f(ctx, messages, opts)
}
