// Copyright (c) Microsoft. All rights reserved.

package productapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/contoso/agent-observability/agent"
)

const defaultTimeout = 10 * time.Second

// Client is a typed client for the product API service. Its transport is
// wrapped in otelhttp, so every call produces a client span and carries the
// active trace context and baggage to the server.
type Client struct {
	baseURL string
	httpc   *http.Client
	timeout time.Duration
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

// NewClient creates a client for the product API at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
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

// Health reports the service health.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.get(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProductOfTheDay returns today's catalog pick.
func (c *Client) GetProductOfTheDay(ctx context.Context) (*Product, error) {
	var out Product
	if err := c.get(ctx, "/product-of-the-day", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Process submits data for processing and returns the transformed result.
func (c *Client) Process(ctx context.Context, data string) (*ProcessResponse, error) {
	var out ProcessResponse
	if err := c.post(ctx, "/process", ProcessRequest{Data: data}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %w", agent.ErrService, err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encode request: %w", agent.ErrService, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: create request: %w", agent.ErrService, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", agent.ErrService, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", agent.ErrService, err)
	}

	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(data))
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		return &agent.ServiceError{
			StatusCode: resp.StatusCode,
			Message:    msg,
			Err:        agent.ErrService,
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", agent.ErrInvalidResponse, req.URL.Path, err)
	}
	return nil
}
