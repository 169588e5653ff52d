// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package profiler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/wattbench/wattbench/internal/device"
	"github.com/wattbench/wattbench/internal/workload"
)

// Profiler sequences measurement sessions across a suite of units,
// collecting per-unit results and run totals.
type Profiler struct {
	reader device.PowerReader
	logger *slog.Logger

	interval    time.Duration
	repeats     int
	warmups     int
	unitTimeout time.Duration
	clock       clock.Clock
	executor    *workload.Executor
}

type Opts struct {
	logger      *slog.Logger
	interval    time.Duration
	repeats     int
	warmups     int
	unitTimeout time.Duration
	clock       clock.Clock
}

// DefaultOpts returns a new Opts with defaults set. The defaults match
// the reference measurement setup: 20 ms polling, 100 timed passes, 5
// warmup passes.
func DefaultOpts() Opts {
	return Opts{
		logger:   slog.Default(),
		interval: 20 * time.Millisecond,
		repeats:  100,
		warmups:  5,
		clock:    clock.RealClock{},
	}
}

// OptionFn is a function that sets one or more options in the Opts struct.
type OptionFn func(*Opts)

// WithLogger sets the logger for the Profiler.
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Opts) {
		o.logger = logger
	}
}

// WithInterval sets the sampler polling interval.
func WithInterval(d time.Duration) OptionFn {
	return func(o *Opts) {
		o.interval = d
	}
}

// WithRepeats sets the timed repetition count per unit.
func WithRepeats(n int) OptionFn {
	return func(o *Opts) {
		o.repeats = n
	}
}

// WithWarmups sets the untimed warmup count per unit.
func WithWarmups(n int) OptionFn {
	return func(o *Opts) {
		o.warmups = n
	}
}

// WithUnitTimeout bounds one unit's measurement. The session itself is
// never interrupted and its window always completes, but a session that
// overran the timeout is recorded as a failed unit and excluded from
// totals.
func WithUnitTimeout(d time.Duration) OptionFn {
	return func(o *Opts) {
		o.unitTimeout = d
	}
}

// WithClock sets the clock used for sampler pacing.
func WithClock(c clock.Clock) OptionFn {
	return func(o *Opts) {
		o.clock = c
	}
}

// New creates a Profiler measuring against the given power reader.
func New(reader device.PowerReader, applyOpts ...OptionFn) *Profiler {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	return &Profiler{
		reader:      reader,
		logger:      opts.logger.With("service", "profiler"),
		interval:    opts.interval,
		repeats:     opts.repeats,
		warmups:     opts.warmups,
		unitTimeout: opts.unitTimeout,
		clock:       opts.clock,
		executor:    workload.NewExecutor(workload.WithLogger(opts.logger)),
	}
}

// errUnitTimeout marks sessions that exceeded the per-unit budget.
var errUnitTimeout = errors.New("unit measurement exceeded timeout")

// Run measures every unit in order. A failing unit is recorded as
// skipped and excluded from totals; the run continues. A power source
// open failure aborts the whole run immediately: without the source no
// accounting is possible. Cancellation via ctx takes effect between
// units, never inside a session.
func (p *Profiler) Run(ctx context.Context, units []workload.Unit) (*Summary, error) {
	summary := &Summary{}

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		res, err := p.measureUnit(unit)
		if err != nil {
			if errors.Is(err, device.ErrSourceUnavailable) {
				return summary, err
			}
			p.logger.Warn("Skipping unit", "unit", unit.Name(), "error", err)
			summary.Skipped = append(summary.Skipped, Skipped{Unit: unit.Name(), Err: err})
			continue
		}

		if res.EmptyWindow {
			p.logger.Warn("No samples in measurement window; energy is under-reported",
				"unit", unit.Name(), "duration", res.Duration)
		}

		p.logger.Info("Measured unit",
			"unit", res.Unit,
			"duration", res.Duration,
			"energy", res.Energy,
			"avg_power", res.AvgPower,
			"samples", len(res.Samples),
		)

		summary.Results = append(summary.Results, res)
		summary.TotalDuration += res.Duration
		summary.TotalEnergy += res.Energy
	}

	return summary, nil
}

func (p *Profiler) measureUnit(unit workload.Unit) (Result, error) {
	s := &session{
		reader:   p.reader,
		executor: p.executor,
		interval: p.interval,
		repeats:  p.repeats,
		warmups:  p.warmups,
		clock:    p.clock,
		logger:   p.logger,
	}

	started := p.clock.Now()
	res, err := s.measure(unit)
	if err != nil {
		return Result{}, err
	}

	if p.unitTimeout > 0 {
		if elapsed := p.clock.Now().Sub(started); elapsed > p.unitTimeout {
			return Result{}, &workload.ExecError{Unit: unit.Name(), Err: errUnitTimeout}
		}
	}

	return res, nil
}
