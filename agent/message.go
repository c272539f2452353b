// Copyright (c) Microsoft. All rights reserved.

package agent

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// FinishReason indicates why the model stopped generating.
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonLength    FinishReason = "length"
	FinishReasonToolCalls FinishReason = "tool_calls"
	FinishReasonFiltered  FinishReason = "content_filter"
)

// Message is a single conversation entry.
type Message struct {
	Role       Role
	Contents   Contents
	AuthorName string
}

// Text returns the concatenated text parts of the message.
func (m Message) Text() string { return m.Contents.Text() }

// NewSystemMessage builds a system message with a single text part.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Contents: Contents{&TextContent{Text: text}}}
}

// NewUserMessage builds a user message with a single text part.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Contents: Contents{&TextContent{Text: text}}}
}

// NewAssistantMessage builds an assistant message with a single text part.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Contents: Contents{&TextContent{Text: text}}}
}

// NewToolMessage builds a tool message carrying a function result.
func NewToolMessage(callID string, result any) Message {
	return Message{
		Role:     RoleTool,
		Contents: Contents{&FunctionResultContent{CallID: callID, Result: result}},
	}
}

// PrependInstructions returns messages with a system message containing
// instructions inserted at the front. Empty instructions are a no-op, as is
// an existing leading system message.
func PrependInstructions(messages []Message, instructions string) []Message {
	if instructions == "" {
		return messages
	}
	if len(messages) > 0 && messages[0].Role == RoleSystem {
		return messages
	}
	out := make([]Message, 0, len(messages)+1)
	out = append(out, NewSystemMessage(instructions))
	return append(out, messages...)
}
