// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package profiler

import (
	"fmt"
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/wattbench/wattbench/internal/device"
	"github.com/wattbench/wattbench/internal/sampler"
	"github.com/wattbench/wattbench/internal/workload"
)

// session coordinates one sampler and the executor around exactly one
// unit. A fresh sampler (and power source connection) is created per
// unit: samples are discarded between units, which bounds buffer growth
// over long runs. The extra sampler start/stop latency sits outside the
// timed window by construction.
type session struct {
	reader   device.PowerReader
	executor *workload.Executor
	interval time.Duration
	repeats  int
	warmups  int
	clock    clock.Clock
	logger   *slog.Logger
}

// measure runs the fixed protocol: start sampler, run unit, stop
// sampler, drain, aggregate. The sampler is stopped on every path, so
// the power source connection never outlives the session. A session is
// not cancellable mid-unit: the timed window always completes, to avoid
// truncating energy attribution.
func (s *session) measure(unit workload.Unit) (Result, error) {
	smp := sampler.New(s.reader, s.interval,
		sampler.WithClock(s.clock),
		sampler.WithLogger(s.logger),
	)

	if err := smp.Start(); err != nil {
		return Result{}, fmt.Errorf("measuring %s: %w", unit.Name(), err)
	}

	window, runErr := s.executor.Run(unit, s.repeats, s.warmups)

	smp.Stop()
	samples := smp.Drain()

	if runErr != nil {
		return Result{}, runErr
	}

	s.logger.Debug("Session complete",
		"unit", unit.Name(),
		"samples", len(samples),
		"window", window.Duration(),
	)

	return aggregate(unit.Name(), window, samples, s.interval), nil
}
