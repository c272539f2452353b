// Copyright (c) Microsoft. All rights reserved.

// Package telemetry is the observability context-propagation layer of the
// demo: it captures per-request identity dimensions once, carries them as
// OpenTelemetry baggage on the context, and projects them onto every span
// started anywhere under that context, in this process or a downstream one.
//
// The pieces:
//
//   - Attach/Detach put a request's identity into ambient baggage under a
//     scoped token, so the dimensions ride the context through every call,
//     suspension point, and process hop without appearing in signatures.
//   - BaggageProjector is a span processor that copies the recognized
//     baggage keys onto each span at start time, including spans created
//     inside libraries this codebase never calls directly.
//   - LifecycleGuard is a span processor that watches begin/end ordering
//     and reports parents that end while children are still open.
//   - Recorder emits counters tagged with the same identity dimensions,
//     pulled explicitly from the request context by the caller.
//   - Setup wires exporters, providers, and propagators from environment
//     configuration. Without an exporter endpoint nothing is installed and
//     every telemetry call in the process quietly does nothing.
//
// Telemetry is never load-bearing: export runs in the background, export
// failures are logged at debug level and swallowed, and a scenario's outcome
// must be identical with telemetry enabled, disabled, or broken.
package telemetry
