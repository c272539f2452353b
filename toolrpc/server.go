// Copyright (c) Microsoft. All rights reserved.

package toolrpc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/contoso/agent-observability/agent"
)

// JSON-RPC 2.0 protocol codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

// rpcRequest is the top-level JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// rpcResponse is the top-level JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ToolDescriptor describes one registered tool to clients.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type listToolsResult struct {
	Tools []ToolDescriptor `json:"tools"`
}

type callToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ContentItem is one piece of a tool call result.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type callToolResult struct {
	Content []ContentItem `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// emptyObjectSchema stands in for tools registered without parameters.
var emptyObjectSchema = json.RawMessage(`{"type":"object","properties":{}}`)

// Server exposes registered tools over JSON-RPC 2.0 on a single endpoint.
// Tool failures are reported in-band as results with isError set; protocol
// violations use JSON-RPC error codes. Either way the HTTP status is 200.
type Server struct {
	service string
	logger  *slog.Logger

	mu    sync.RWMutex
	tools map[string]agent.Tool
	order []string

	mux *http.ServeMux
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServiceName sets the service name reported by /health.
func WithServiceName(name string) ServerOption {
	return func(s *Server) { s.service = name }
}

// WithLogger sets the logger used for request logging.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a tool-protocol server with no tools registered.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		service: "mcp-server",
		logger:  slog.Default(),
		tools:   make(map[string]agent.Tool),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /rpc", s.handleRPC)
	s.mux = mux
	return s
}

// Register adds a tool. Registering the same name again replaces the earlier
// tool and keeps its position in the listing.
func (s *Server) Register(tool agent.Tool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := tool.Name()
	if _, exists := s.tools[name]; !exists {
		s.order = append(s.order, name)
	}
	s.tools[name] = tool
}

// ToolNames returns the registered tool names in registration order.
func (s *Server) ToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Handler returns the HTTP handler for the service. Requests are wrapped in
// otelhttp so tool invocations run under a server span that joins the
// caller's trace and carries its baggage.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.mux, "tool-rpc")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": s.service,
	})
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.WarnContext(r.Context(), "bad rpc request", "error", err)
		s.writeError(w, nil, codeParseError, "Parse error")
		return
	}

	if req.JSONRPC != "2.0" || req.Method == "" {
		s.writeError(w, req.ID, codeInvalidRequest, "Invalid request")
		return
	}

	s.logger.DebugContext(r.Context(), "rpc request", "method", req.Method)

	switch req.Method {
	case "tools/list":
		s.handleToolsList(w, &req)
	case "tools/call":
		s.handleToolsCall(w, r, &req)
	default:
		s.writeError(w, req.ID, codeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method))
	}
}

func (s *Server) handleToolsList(w http.ResponseWriter, req *rpcRequest) {
	s.mu.RLock()
	descriptors := make([]ToolDescriptor, 0, len(s.order))
	for _, name := range s.order {
		tool := s.tools[name]
		schema := tool.Parameters()
		if len(schema) == 0 {
			schema = emptyObjectSchema
		}
		descriptors = append(descriptors, ToolDescriptor{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: schema,
		})
	}
	s.mu.RUnlock()

	s.writeResult(w, req.ID, listToolsResult{Tools: descriptors})
}

func (s *Server) handleToolsCall(w http.ResponseWriter, r *http.Request, req *rpcRequest) {
	var params callToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		s.writeError(w, req.ID, codeInvalidParams, "Invalid params")
		return
	}

	s.mu.RLock()
	tool, ok := s.tools[params.Name]
	s.mu.RUnlock()
	if !ok {
		s.writeError(w, req.ID, codeInvalidParams, fmt.Sprintf("Unknown tool: %s", params.Name))
		return
	}

	args := params.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	result, err := tool.Invoke(r.Context(), args)
	if err != nil {
		s.logger.WarnContext(r.Context(), "tool call failed",
			"tool_name", params.Name,
			"error", err,
		)
		s.writeResult(w, req.ID, callToolResult{
			Content: []ContentItem{{Type: "text", Text: err.Error()}},
			IsError: true,
		})
		return
	}

	text, err := formatResult(result)
	if err != nil {
		s.writeError(w, req.ID, codeServerError, fmt.Sprintf("encode result: %v", err))
		return
	}

	s.logger.InfoContext(r.Context(), "tool call served", "tool_name", params.Name)
	s.writeResult(w, req.ID, callToolResult{
		Content: []ContentItem{{Type: "text", Text: text}},
	})
}

func (s *Server) writeResult(w http.ResponseWriter, id json.RawMessage, result any) {
	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) writeError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	writeJSON(w, http.StatusOK, rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}})
}

// formatResult renders a tool result as text content. Strings pass through;
// everything else is JSON-encoded.
func formatResult(result any) (string, error) {
	switch v := result.(type) {
	case string:
		return v, nil
	case json.RawMessage:
		return string(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
