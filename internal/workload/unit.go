// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package workload

import (
	"fmt"
	"time"
)

// Unit is one measurable computation. Execute runs the computation once
// to completion; it must be repeatable and, from the measurement's point
// of view, side-effect free. Units are never executed concurrently with
// themselves.
type Unit interface {
	Name() string
	Execute() error
}

// Window is the monotonic-clock interval during which a unit's timed
// repetitions ran. Window boundaries and power sample timestamps must
// come from the same clock source to be comparable.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Contains reports whether t lies within the window, both ends inclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// ExecError reports a unit failure during warmup or timed execution.
// It aborts only that unit's measurement, not the run.
type ExecError struct {
	Unit string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("unit %s failed: %v", e.Unit, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
