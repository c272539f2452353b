// Copyright (c) Microsoft. All rights reserved.

package workflow

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrWorkflow is the base error for orchestration failures.
	ErrWorkflow = errors.New("workflow error")

	// ErrRoundLimit indicates the run used up its round budget without the
	// manager producing a final answer.
	ErrRoundLimit = fmt.Errorf("%w: round limit", ErrWorkflow)

	// ErrStalled indicates the manager/worker exchange stopped making
	// progress and the reset budget is exhausted.
	ErrStalled = fmt.Errorf("%w: stalled", ErrWorkflow)
)
