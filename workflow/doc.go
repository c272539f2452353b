// Copyright (c) Microsoft. All rights reserved.

// Package workflow orchestrates a manager agent over a tool-using worker.
//
// The manager plans the task, then per round either instructs the worker or
// declares the task finished with a final answer. Manager replies are single
// JSON decision objects parsed leniently, so a malformed reply degrades into
// an instruction instead of failing the run. Progress bounds come from
// Limits: too many rounds fails with ErrRoundLimit; rounds without progress
// trigger a transcript reset, and too many resets fail with ErrStalled.
//
//	manager := workflow.NewManager(chatClient)
//	worker := agent.New(chatClient, agent.WithTools(tools...))
//	orch := workflow.New(manager, worker)
//	result, err := orch.Run(ctx, "Find today's product and check its stock.")
//
// RunStream exposes the same run as a pull-based EventStream of plan,
// instruction, reply, reset, and final events. The whole run executes under
// one workflow.run span, so every model call and tool invocation below it
// shares a single trace.
package workflow
