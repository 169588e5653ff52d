// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package profiler

import (
	"time"

	"github.com/wattbench/wattbench/internal/device"
)

// Result is the energy attribution for one unit. Created once per unit
// and immutable afterwards; the run owns it for export and summary.
type Result struct {
	Unit     string
	Duration time.Duration
	Energy   device.Energy
	AvgPower device.Power
	Samples  []device.Power

	// EmptyWindow marks that no sample fell inside the measurement
	// window (unit faster than one polling interval, or the sampler
	// was not scheduled in time). Energy and AvgPower are zero but
	// this is "no data", not "measured zero". Energy is under-reported
	// for such units.
	EmptyWindow bool
}

// Skipped records a unit whose measurement was abandoned. Skipped units
// are excluded from run totals.
type Skipped struct {
	Unit string
	Err  error
}

// Summary holds all results of one benchmark run.
type Summary struct {
	Results       []Result
	Skipped       []Skipped
	TotalDuration time.Duration
	TotalEnergy   device.Energy
}

// AvgPower is the run-level average power over all measured units.
func (s *Summary) AvgPower() device.Power {
	if s.TotalDuration <= 0 {
		return 0
	}
	return device.PowerFromWatts(s.TotalEnergy.Joules() / s.TotalDuration.Seconds())
}
