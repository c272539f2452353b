// Copyright (c) Microsoft. All rights reserved.

package toolrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/contoso/agent-observability/agent"
	"github.com/contoso/agent-observability/telemetry"
)

const defaultTimeout = 10 * time.Second

// Client calls a tool-protocol server. Every remote call opens its own span
// and rides an otelhttp transport, so trace context and baggage reach the
// server.
type Client struct {
	endpoint string
	httpc    *http.Client
	timeout  time.Duration
	nextID   atomic.Int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientTimeout sets the per-call timeout.
func WithClientTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithClientHTTPClient sets the underlying HTTP client.
func WithClientHTTPClient(httpc *http.Client) ClientOption {
	return func(c *Client) { c.httpc = httpc }
}

// NewClient creates a client for the tool server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/rpc",
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.httpc
	if base == nil {
		base = &http.Client{}
	}
	instrumented := *base
	instrumented.Transport = otelhttp.NewTransport(base.Transport)
	c.httpc = &instrumented
	return c
}

// ListTools returns the descriptors of every tool the server exposes.
func (c *Client) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanToolsList)
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrRPCMethod, "tools/list"))

	var result listToolsResult
	if err := c.call(ctx, "tools/list", nil, &result); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return result.Tools, nil
}

// CallTool invokes a named tool on the server and returns its text result.
// A result the server marks as failed comes back as a *agent.ToolError, as
// does any transport or protocol failure.
func (c *Client) CallTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanToolsCall)
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrRPCMethod, "tools/call"),
		attribute.String(telemetry.AttrToolName, name),
	)

	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	var result callToolResult
	err := c.call(ctx, "tools/call", callToolParams{Name: name, Arguments: args}, &result)
	if err != nil {
		toolErr := &agent.ToolError{
			ToolName: name,
			Message:  fmt.Sprintf("remote call failed: %v", err),
			Err:      fmt.Errorf("%w: %w", agent.ErrToolExecution, err),
		}
		telemetry.RecordError(span, toolErr)
		return "", toolErr
	}

	text := joinContent(result.Content)
	if result.IsError {
		toolErr := &agent.ToolError{ToolName: name, Message: text}
		telemetry.RecordError(span, toolErr)
		return "", toolErr
	}
	return text, nil
}

func (c *Client) call(ctx context.Context, method string, params, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(strconv.FormatInt(c.nextID.Add(1), 10)),
		Method:  method,
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("%w: encode %s params: %w", agent.ErrService, method, err)
		}
		req.Params = data
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: encode %s request: %w", agent.ErrService, method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %w", agent.ErrService, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", agent.ErrService, method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", agent.ErrService, method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &agent.ServiceError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(data)),
			Err:        agent.ErrService,
		}
	}

	var rpcResp struct {
		JSONRPC string          `json:"jsonrpc"`
		Result  json.RawMessage `json:"result"`
		Error   *rpcError       `json:"error"`
	}
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", agent.ErrInvalidResponse, method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%w: %s: %s (code %d)", agent.ErrService, method, rpcResp.Error.Message, rpcResp.Error.Code)
	}

	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("%w: decode %s result: %w", agent.ErrInvalidResponse, method, err)
		}
	}
	return nil
}

func joinContent(items []ContentItem) string {
	texts := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type == "text" && item.Text != "" {
			texts = append(texts, item.Text)
		}
	}
	return strings.Join(texts, "\n")
}
