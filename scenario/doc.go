// Copyright (c) Microsoft. All rights reserved.

// Package scenario drives the end-to-end demo flows: pick a roster user,
// attach their request context to the ambient telemetry baggage, run a
// single-agent or manager/worker scenario against the product and tool
// services, and report the outcome.
//
// A [Runner] owns the attach/run/detach lifecycle:
//
//	runner := scenario.NewRunner(apiClient, toolClient)
//	report := runner.Run(ctx, scenario.SingleAgent)
//	fmt.Println(report.Status(), report.Answer)
//
// Without a configured model backend the runner falls back to
// [ScriptedClient], an offline stand-in that exercises the same tools and
// produces the same span activity a live model would.
package scenario
