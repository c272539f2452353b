// Copyright (c) Microsoft. All rights reserved.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// InvocationConfig controls the function invocation loop behavior.
type InvocationConfig struct {
	// MaxIterations is the maximum number of model round-trips for tool calling.
	// Default: 40.
	MaxIterations int

	// MaxConsecutiveErrors is the maximum number of consecutive tool errors
	// before aborting. Default: 3.
	MaxConsecutiveErrors int

	// TerminateOnUnknown aborts if the model calls an unknown tool. When
	// false, the model is told the tool does not exist and may recover.
	TerminateOnUnknown bool

	// IncludeDetailedErrors includes full error text in tool results sent
	// back to the model. When false, a generic error message is used.
	IncludeDetailedErrors bool
}

// DefaultInvocationConfig returns the default configuration.
func DefaultInvocationConfig() InvocationConfig {
	return InvocationConfig{
		MaxIterations:        40,
		MaxConsecutiveErrors: 3,
	}
}

// invokeFunctions runs the tool-calling loop: extract function call content
// from the response, invoke matched tools, append results, and re-call the
// model. It returns the final response plus every message produced along the
// way (assistant tool-call messages and their tool results) and the summed
// token usage.
func invokeFunctions(
	ctx context.Context,
	chat ChatHandler,
	messages []Message,
	opts *ChatOptions,
	config InvocationConfig,
	fnMiddleware []FunctionMiddleware,
) (*ChatResponse, []Message, UsageDetails, error) {
	if config.MaxIterations <= 0 {
		config.MaxIterations = 40
	}
	if config.MaxConsecutiveErrors <= 0 {
		config.MaxConsecutiveErrors = 3
	}

	toolMap := make(map[string]Tool, len(opts.Tools))
	for _, t := range opts.Tools {
		toolMap[t.Name()] = t
	}

	invoke := chainMiddleware[FunctionHandler](func(ctx context.Context, t Tool, a json.RawMessage) (any, error) {
		return t.Invoke(ctx, a)
	}, fnMiddleware...)

	var produced []Message
	var usage UsageDetails
	consecutiveErrors := 0

	for iteration := 0; iteration < config.MaxIterations; iteration++ {
		resp, err := chat(ctx, messages, opts)
		if err != nil {
			return nil, produced, usage, err
		}
		usage.Add(resp.Usage)

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			produced = append(produced, resp.Messages...)
			return resp, produced, usage, nil
		}

		var resultMessages []Message
		for _, call := range calls {
			tool, ok := toolMap[call.Name]
			if !ok {
				if config.TerminateOnUnknown {
					return nil, produced, usage, fmt.Errorf("%w: %q", ErrToolNotFound, call.Name)
				}
				consecutiveErrors++
				slog.WarnContext(ctx, "unknown tool called",
					"tool", call.Name,
					"consecutive_errors", consecutiveErrors,
				)
				if consecutiveErrors >= config.MaxConsecutiveErrors {
					return nil, produced, usage, fmt.Errorf("%w: %d consecutive tool errors: %w: %q", ErrToolLoop, consecutiveErrors, ErrToolNotFound, call.Name)
				}
				resultMessages = append(resultMessages, NewToolMessage(call.CallID, "error: unknown tool"))
				continue
			}

			result, invokeErr := invoke(ctx, tool, call.ArgumentsJSON())
			if invokeErr != nil {
				consecutiveErrors++
				slog.WarnContext(ctx, "tool invocation error",
					"tool", call.Name,
					"error", invokeErr,
					"consecutive_errors", consecutiveErrors,
				)
				if consecutiveErrors >= config.MaxConsecutiveErrors {
					return nil, produced, usage, fmt.Errorf("%w: %d consecutive tool errors: %w", ErrToolLoop, consecutiveErrors, invokeErr)
				}
				errMsg := "error invoking tool"
				if config.IncludeDetailedErrors {
					errMsg = invokeErr.Error()
				}
				resultMessages = append(resultMessages, NewToolMessage(call.CallID, errMsg))
				continue
			}

			consecutiveErrors = 0
			resultMessages = append(resultMessages, NewToolMessage(call.CallID, result))
		}

		messages = append(messages, resp.Messages...)
		messages = append(messages, resultMessages...)
		produced = append(produced, resp.Messages...)
		produced = append(produced, resultMessages...)
	}

	return nil, produced, usage, fmt.Errorf("%w: max iterations reached (%d)", ErrToolLoop, config.MaxIterations)
}
