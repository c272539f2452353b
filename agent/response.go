// Copyright (c) Microsoft. All rights reserved.

package agent

import "strings"

// ChatResponse is the complete response from a [ChatClient].
type ChatResponse struct {
	Messages     []Message
	ResponseID   string
	ModelID      string
	FinishReason FinishReason
	Usage        UsageDetails
}

// Text returns the concatenated text of all messages in this response.
func (r *ChatResponse) Text() string {
	var b strings.Builder
	for i := range r.Messages {
		b.WriteString(r.Messages[i].Text())
	}
	return b.String()
}

// FunctionCalls returns all function call parts across the response messages.
func (r *ChatResponse) FunctionCalls() []*FunctionCallContent {
	var calls []*FunctionCallContent
	for i := range r.Messages {
		calls = append(calls, r.Messages[i].Contents.FunctionCalls()...)
	}
	return calls
}

// AgentResponse is the complete response from an [Agent] run. Messages holds
// every message produced during the run, including intermediate tool calls
// and their results.
type AgentResponse struct {
	Messages   []Message
	ResponseID string
	AgentID    string
	Usage      UsageDetails
}

// Text returns the concatenated text of the final assistant message.
func (r *AgentResponse) Text() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleAssistant {
			if t := r.Messages[i].Text(); t != "" {
				return t
			}
		}
	}
	return ""
}
