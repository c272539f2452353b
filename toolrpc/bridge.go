// Copyright (c) Microsoft. All rights reserved.

package toolrpc

import (
	"context"
	"encoding/json"

	"github.com/contoso/agent-observability/agent"
)

// AgentTools lists the server's tools once and wraps each as an agent.Tool.
// Invocations dispatch by tool name with the raw JSON arguments; nothing is
// generated per tool, so the set of tools is whatever the server reports at
// call time.
func AgentTools(ctx context.Context, client *Client) ([]agent.Tool, error) {
	descriptors, err := client.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	tools := make([]agent.Tool, 0, len(descriptors))
	for _, desc := range descriptors {
		tools = append(tools, &remoteTool{client: client, desc: desc})
	}
	return tools, nil
}

// remoteTool is an agent.Tool whose Invoke forwards to a tool server.
type remoteTool struct {
	client *Client
	desc   ToolDescriptor
}

func (t *remoteTool) Name() string                { return t.desc.Name }
func (t *remoteTool) Description() string         { return t.desc.Description }
func (t *remoteTool) Parameters() json.RawMessage { return t.desc.InputSchema }

func (t *remoteTool) Invoke(ctx context.Context, args json.RawMessage) (any, error) {
	return t.client.CallTool(ctx, t.desc.Name, args)
}
