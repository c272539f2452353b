// Copyright (c) Microsoft. All rights reserved.

package scenario

import (
	"errors"
	"time"

	"github.com/contoso/agent-observability/agent"
	"github.com/contoso/agent-observability/identity"
)

// ToolCall records one tool invocation observed during a scenario run.
// Result is truncated to keep reports printable.
type ToolCall struct {
	Tool   string
	Result string
	Err    string
}

// Report summarizes one scenario run. Err is nil for completed runs and a
// [*Error] for failed ones.
type Report struct {
	ScenarioID string
	Type       string
	User       identity.RequestContext
	Answer     string
	ToolCalls  []ToolCall
	Rounds     int
	Resets     int
	Usage      agent.UsageDetails
	Duration   time.Duration
	Err        error
}

// Status reports "completed" or "failed".
func (r *Report) Status() string {
	if r.Err != nil {
		return "failed"
	}
	return "completed"
}

// Stage returns the stage the run failed in, or "" for completed runs.
func (r *Report) Stage() string {
	var serr *Error
	if errors.As(r.Err, &serr) {
		return serr.Stage
	}
	return ""
}
