// Copyright (c) Microsoft. All rights reserved.

package scenario

import (
	"errors"
	"fmt"
)

// ErrScenario is the base error for scenario failures.
var ErrScenario = errors.New("scenario failed")

// Stages a scenario run can fail in.
const (
	StageSetup = "setup"
	StageTools = "tools"
	StageRun   = "run"
)

// Error describes a scenario failure and the stage it occurred in.
type Error struct {
	Scenario string
	Stage    string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("scenario %q: %s stage: %v", e.Scenario, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrScenario
}

// failure wraps err for the given stage so callers can match both
// [ErrScenario] and the underlying cause with errors.Is.
func failure(scenarioID, stage string, err error) *Error {
	return &Error{
		Scenario: scenarioID,
		Stage:    stage,
		Err:      fmt.Errorf("%w: %w", ErrScenario, err),
	}
}
