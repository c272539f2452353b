// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"encoding/json"
	"strings"

	"github.com/contoso/agent-observability/agent"
)

// chatRequest is the OpenAI Chat Completions API request body.
type chatRequest struct {
	Model       string            `json:"model"`
	Messages    []chatMessage     `json:"messages"`
	Temperature *float64          `json:"temperature,omitempty"`
	TopP        *float64          `json:"top_p,omitempty"`
	MaxTokens   *int              `json:"max_completion_tokens,omitempty"`
	Stop        []string          `json:"stop,omitempty"`
	Seed        *int              `json:"seed,omitempty"`
	Tools       []toolSpec        `json:"tools,omitempty"`
	ToolChoice  any               `json:"tool_choice,omitempty"`
	User        string            `json:"user,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type chatMessage struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type toolSpec struct {
	Type     string       `json:"type"`
	Function functionSpec `json:"function"`
}

type functionSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// buildRequest converts runtime types into an OpenAI API request.
func buildRequest(messages []agent.Message, opts *agent.ChatOptions, defaultModel string) *chatRequest {
	req := &chatRequest{
		Model: defaultModel,
	}
	if opts != nil {
		if opts.ModelID != "" {
			req.Model = opts.ModelID
		}
		req.Temperature = opts.Temperature
		req.TopP = opts.TopP
		req.MaxTokens = opts.MaxTokens
		req.Stop = opts.Stop
		req.Seed = opts.Seed
		req.User = opts.User
		req.Metadata = opts.Metadata

		for _, t := range opts.Tools {
			req.Tools = append(req.Tools, toolSpec{
				Type: "function",
				Function: functionSpec{
					Name:        t.Name(),
					Description: t.Description(),
					Parameters:  t.Parameters(),
				},
			})
		}

		req.ToolChoice = convertToolChoice(opts.ToolChoice)
	}

	req.Messages = convertMessages(messages)
	return req
}

// convertMessages translates runtime Messages into OpenAI chat messages.
func convertMessages(messages []agent.Message) []chatMessage {
	result := make([]chatMessage, 0, len(messages))

	for _, msg := range messages {
		cm := chatMessage{
			Role: string(msg.Role),
			Name: msg.AuthorName,
		}

		switch msg.Role {
		case agent.RoleTool:
			// Tool messages carry a single function result
			for _, c := range msg.Contents {
				if fr, ok := c.(*agent.FunctionResultContent); ok {
					cm.ToolCallID = fr.CallID
					cm.Content, _ = marshalResult(fr.Result)
				}
			}

		case agent.RoleAssistant:
			// Assistant messages may have text + tool calls
			var text strings.Builder
			for _, c := range msg.Contents {
				switch v := c.(type) {
				case *agent.TextContent:
					text.WriteString(v.Text)
				case *agent.FunctionCallContent:
					cm.ToolCalls = append(cm.ToolCalls, toolCall{
						ID:   v.CallID,
						Type: "function",
						Function: functionCall{
							Name:      v.Name,
							Arguments: v.Arguments,
						},
					})
				}
			}
			cm.Content = text.String()

		default:
			// User/system messages: plain text
			cm.Content = msg.Text()
		}

		result = append(result, cm)
	}

	return result
}

func convertToolChoice(tc agent.ToolChoice) any {
	if tc == "" {
		return nil
	}
	switch tc {
	case agent.ToolChoiceAuto:
		return "auto"
	case agent.ToolChoiceRequired:
		return "required"
	case agent.ToolChoiceNone:
		return "none"
	default:
		if name, ok := strings.CutPrefix(string(tc), "function:"); ok {
			return map[string]any{
				"type": "function",
				"function": map[string]string{
					"name": name,
				},
			}
		}
		return string(tc)
	}
}

func marshalResult(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(v)
	return string(b), err
}
