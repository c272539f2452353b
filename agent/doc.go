// Copyright (c) Microsoft. All rights reserved.

// Package agent provides the core types for building tool-calling AI agents:
// a composable [Agent] with a bounded function invocation loop, middleware
// pipelines at three levels, and an in-memory [Conversation] transcript.
//
// # Quick Start
//
// Create a [ChatClient] (e.g., from the openai package) and build an Agent:
//
//	client := openai.New(os.Getenv("AI_API_KEY"), openai.WithModel("gpt-4o"))
//
//	a := agent.New(client,
//	    agent.WithName("assistant"),
//	    agent.WithInstructions("You are helpful."),
//	    agent.WithTools(myTool),
//	)
//
//	resp, err := a.Run(ctx, []agent.Message{agent.NewUserMessage("Hello!")})
//
// # Tools
//
// Use [NewTypedTool] for type-safe tools with automatic JSON Schema generation:
//
//	type StockArgs struct {
//	    ProductID string `json:"product_id" jsonschema:"description=Catalog product identifier,required"`
//	}
//
//	tool := agent.NewTypedTool("get_product_stock", "Get stock for a product",
//	    func(ctx context.Context, args StockArgs) (any, error) {
//	        return lookupStock(args.ProductID)
//	    },
//	)
//
// # Middleware
//
// Cross-cutting behavior hooks in at three levels: around the whole run
// ([AgentMiddleware]), around each model call ([ChatMiddleware]), and around
// each tool invocation ([FunctionMiddleware]). [Tracing] provides span
// instrumentation at all three.
//
//	tr := agent.NewTracing()
//	a := agent.New(client,
//	    agent.WithAgentMiddleware(tr.Agent(), agent.LoggingMiddleware(nil)),
//	    agent.WithChatMiddleware(tr.Chat()),
//	    agent.WithFunctionMiddleware(tr.Function()),
//	)
package agent
