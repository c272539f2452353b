// Copyright (c) Microsoft. All rights reserved.

// Package toolrpc serves and consumes tools over JSON-RPC 2.0.
//
// The protocol is a single POST endpoint with two methods: tools/list, which
// returns name, description, and JSON-schema input for every registered
// tool, and tools/call, which invokes one by name with raw JSON arguments.
// Tool failures come back in-band as results marked isError; only protocol
// violations use JSON-RPC error codes.
//
// Server side, any agent.Tool can be registered:
//
//	srv := toolrpc.NewServer()
//	srv.Register(toolrpc.NewStockTool())
//	http.ListenAndServe(":8001", srv.Handler())
//
// Client side, AgentTools bridges the remote tools into an agent:
//
//	client := toolrpc.NewClient("http://localhost:8001")
//	tools, err := toolrpc.AgentTools(ctx, client)
//	worker := agent.New(chat, agent.WithTools(tools...))
//
// Both directions are instrumented: the server handler and the client
// transport run under otelhttp, and every ListTools/CallTool opens its own
// span, so a remote tool invocation appears in the caller's trace as
// mcp.tools.call above the server-side execution.
package toolrpc
