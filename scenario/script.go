// Copyright (c) Microsoft. All rights reserved.

package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/contoso/agent-observability/agent"
	"github.com/contoso/agent-observability/workflow"
)

// Scripted responses carry fixed token counts so usage panels stay non-empty.
const (
	scriptedInputTokens  = 32
	scriptedOutputTokens = 16
)

// ScriptedChatFactory returns a [ChatFactory] producing [ScriptedClient]
// instances, so scenarios run without a model backend.
func ScriptedChatFactory() ChatFactory {
	return func(context.Context) (agent.ChatClient, error) {
		return NewScriptedClient(), nil
	}
}

// ScriptedClient is an offline stand-in for a chat model. It answers the
// product question the way a live model would: request the product of the
// day, then the stock lookup, then summarize, driving the same tool calls
// and spans. It also plays the manager role when handed workflow planning
// or decision prompts.
//
// The client is stateless; every reply is derived from the transcript it is
// given, so one instance can serve any number of runs.
type ScriptedClient struct{}

// NewScriptedClient returns a scripted chat client.
func NewScriptedClient() *ScriptedClient { return &ScriptedClient{} }

var _ agent.ChatClient = (*ScriptedClient)(nil)

// GetResponse inspects the transcript and produces the next scripted step.
func (c *ScriptedClient) GetResponse(ctx context.Context, messages []agent.Message, opts *agent.ChatOptions) (*agent.ChatResponse, error) {
	prompt := lastUserText(messages)

	switch {
	case strings.Contains(prompt, "step-by-step plan"):
		return textResponse("1. Get the product of the day.\n2. Look up its stock level.\n3. Report availability."), nil
	case strings.Contains(prompt, "single JSON object"):
		return decideResponse(prompt)
	}

	productJSON, stockJSON := transcriptState(messages)
	switch {
	case productJSON == "":
		return callResponse("call_product", "get_product_of_the_day", "{}"), nil
	case stockJSON == "":
		args, err := json.Marshal(map[string]string{"product_id": extractProductID(productJSON)})
		if err != nil {
			return nil, err
		}
		return callResponse("call_stock", "get_product_stock", string(args)), nil
	default:
		return textResponse(summarize(productJSON, stockJSON)), nil
	}
}

// decideResponse emits a manager decision: finish once a worker reply reports
// availability, otherwise instruct the lookup.
func decideResponse(prompt string) (*agent.ChatResponse, error) {
	decision := workflow.Decision{
		Action:  workflow.ActionInstruct,
		Content: "Get the product of the day and check its stock level.",
	}
	if strings.Contains(prompt, "units in stock") || strings.Contains(prompt, "out of stock") {
		decision.Action = workflow.ActionFinish
		decision.Content = "Task complete."
		if reply := lastWorkerReply(prompt); reply != "" {
			decision.Content = reply
		}
	}
	data, err := json.Marshal(decision)
	if err != nil {
		return nil, err
	}
	return textResponse(string(data)), nil
}

// lastUserText returns the text of the most recent user message.
func lastUserText(messages []agent.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == agent.RoleUser {
			return messages[i].Text()
		}
	}
	return ""
}

// transcriptState extracts the latest product and stock tool results from the
// conversation so far.
func transcriptState(messages []agent.Message) (productJSON, stockJSON string) {
	toolNames := make(map[string]string)
	for _, msg := range messages {
		for _, content := range msg.Contents {
			switch part := content.(type) {
			case *agent.FunctionCallContent:
				toolNames[part.CallID] = part.Name
			case *agent.FunctionResultContent:
				text := resultString(part.Result)
				switch toolNames[part.CallID] {
				case "get_product_of_the_day":
					productJSON = text
				case "get_product_stock":
					stockJSON = text
				}
			}
		}
	}
	return productJSON, stockJSON
}

func resultString(result any) string {
	switch v := result.(type) {
	case string:
		return v
	case json.RawMessage:
		return string(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

func extractProductID(productJSON string) string {
	var product struct {
		ProductID string `json:"product_id"`
	}
	if err := json.Unmarshal([]byte(productJSON), &product); err == nil && product.ProductID != "" {
		return product.ProductID
	}
	return "UNKNOWN_ID"
}

// summarize renders the final scripted answer from the raw tool results.
func summarize(productJSON, stockJSON string) string {
	var product struct {
		ProductID   string `json:"product_id"`
		Description string `json:"product_description"`
	}
	var stock struct {
		StockCount int  `json:"stock_count"`
		Available  bool `json:"available"`
	}
	_ = json.Unmarshal([]byte(productJSON), &product)
	_ = json.Unmarshal([]byte(stockJSON), &stock)

	availability := fmt.Sprintf("%d units in stock", stock.StockCount)
	if !stock.Available {
		availability = "currently out of stock"
	}
	name := product.ProductID
	if name == "" {
		name = "unknown"
	}
	if product.Description == "" {
		return fmt.Sprintf("Today's product is %s. It is %s.", name, availability)
	}
	return fmt.Sprintf("Today's product is %s (%s). It is %s.", name, product.Description, availability)
}

// lastWorkerReply pulls the most recent worker reply line out of a manager
// decision prompt.
func lastWorkerReply(prompt string) string {
	const marker = " worker reply: "
	idx := strings.LastIndex(prompt, marker)
	if idx < 0 {
		return ""
	}
	reply := prompt[idx+len(marker):]
	if end := strings.IndexByte(reply, '\n'); end >= 0 {
		reply = reply[:end]
	}
	return strings.TrimSpace(reply)
}

func textResponse(text string) *agent.ChatResponse {
	return &agent.ChatResponse{
		Messages:     []agent.Message{agent.NewAssistantMessage(text)},
		FinishReason: agent.FinishReasonStop,
		Usage: agent.UsageDetails{
			InputTokens:  scriptedInputTokens,
			OutputTokens: scriptedOutputTokens,
			TotalTokens:  scriptedInputTokens + scriptedOutputTokens,
		},
	}
}

func callResponse(callID, name, arguments string) *agent.ChatResponse {
	msg := agent.Message{
		Role: agent.RoleAssistant,
		Contents: agent.Contents{&agent.FunctionCallContent{
			CallID:    callID,
			Name:      name,
			Arguments: arguments,
		}},
	}
	return &agent.ChatResponse{
		Messages:     []agent.Message{msg},
		FinishReason: agent.FinishReasonToolCalls,
		Usage: agent.UsageDetails{
			InputTokens:  scriptedInputTokens,
			OutputTokens: scriptedOutputTokens,
			TotalTokens:  scriptedInputTokens + scriptedOutputTokens,
		},
	}
}
