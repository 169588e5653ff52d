// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package workload

import (
	"fmt"
	"log/slog"
	"time"
)

// Executor runs units a fixed number of times and reports a precise
// timing window. Execution is strictly sequential; the executor never
// spawns concurrent invocations of the same unit.
type Executor struct {
	logger *slog.Logger
}

// OptionFn is a function that sets one or more options of the Executor.
type OptionFn func(*Executor)

// WithLogger sets the logger for the Executor.
func WithLogger(logger *slog.Logger) OptionFn {
	return func(x *Executor) {
		x.logger = logger.With("service", "executor")
	}
}

// NewExecutor creates a workload executor.
func NewExecutor(applyOpts ...OptionFn) *Executor {
	x := &Executor{
		logger: slog.Default().With("service", "executor"),
	}

	for _, apply := range applyOpts {
		apply(x)
	}

	return x
}

// Run executes warmups untimed repetitions of unit, then times repeats
// repetitions with the monotonic clock. Warmup passes exclude one-time
// costs (lazy allocation, cache fill) from the timed window. Duration
// per call is Window.Duration() / repeats, computed by the caller.
func (x *Executor) Run(unit Unit, repeats, warmups int) (Window, error) {
	if repeats <= 0 {
		return Window{}, fmt.Errorf("repeats must be positive, got %d", repeats)
	}
	if warmups < 0 {
		return Window{}, fmt.Errorf("warmups must not be negative, got %d", warmups)
	}

	x.logger.Debug("Warming up unit", "unit", unit.Name(), "warmups", warmups)
	for i := 0; i < warmups; i++ {
		if err := unit.Execute(); err != nil {
			return Window{}, &ExecError{Unit: unit.Name(), Err: fmt.Errorf("warmup pass %d: %w", i+1, err)}
		}
	}

	start := time.Now()
	for i := 0; i < repeats; i++ {
		if err := unit.Execute(); err != nil {
			return Window{}, &ExecError{Unit: unit.Name(), Err: fmt.Errorf("timed pass %d: %w", i+1, err)}
		}
	}
	end := time.Now()

	return Window{Start: start, End: end}, nil
}
