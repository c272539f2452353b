// Copyright (c) Microsoft. All rights reserved.

package agent

import "encoding/json"

// ContentType discriminates the concrete Content implementations.
type ContentType string

const (
	ContentTypeText           ContentType = "text"
	ContentTypeFunctionCall   ContentType = "functionCall"
	ContentTypeFunctionResult ContentType = "functionResult"
	ContentTypeError          ContentType = "error"
	ContentTypeUsage          ContentType = "usage"
)

// Content is the sealed interface implemented by all message part types.
// Only types in this package can implement it.
type Content interface {
	contentType() ContentType
	sealed()
}

// base is embedded by all content types to seal the interface.
type base struct{}

func (base) sealed() {}

// TextContent is a plain text message part.
type TextContent struct {
	base
	Text string
}

func (*TextContent) contentType() ContentType { return ContentTypeText }

// FunctionCallContent is a model request to invoke a tool. Arguments is the
// raw JSON argument payload exactly as produced by the model.
type FunctionCallContent struct {
	base
	CallID    string
	Name      string
	Arguments string
}

func (*FunctionCallContent) contentType() ContentType { return ContentTypeFunctionCall }

// ArgumentsJSON returns the arguments as a raw JSON message, substituting an
// empty object for a missing payload.
func (c *FunctionCallContent) ArgumentsJSON() json.RawMessage {
	if c.Arguments == "" {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(c.Arguments)
}

// FunctionResultContent carries a tool invocation result back to the model.
type FunctionResultContent struct {
	base
	CallID string
	Result any
}

func (*FunctionResultContent) contentType() ContentType { return ContentTypeFunctionResult }

// ErrorContent represents an in-band error, for example a failed tool call
// whose outcome is reported to the model rather than aborting the run.
type ErrorContent struct {
	base
	Message   string
	ErrorCode string
}

func (*ErrorContent) contentType() ContentType { return ContentTypeError }

// UsageContent carries token usage reported alongside a response.
type UsageContent struct {
	base
	Usage UsageDetails
}

func (*UsageContent) contentType() ContentType { return ContentTypeUsage }

// Contents is a slice of message parts with convenience accessors.
type Contents []Content

// Text concatenates all TextContent parts.
func (c Contents) Text() string {
	var out string
	for _, item := range c {
		if t, ok := item.(*TextContent); ok {
			out += t.Text
		}
	}
	return out
}

// FunctionCalls returns all function call parts in order.
func (c Contents) FunctionCalls() []*FunctionCallContent {
	var calls []*FunctionCallContent
	for _, item := range c {
		if fc, ok := item.(*FunctionCallContent); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}
