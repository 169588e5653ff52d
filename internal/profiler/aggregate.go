// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package profiler

import (
	"time"

	"github.com/wattbench/wattbench/internal/device"
	"github.com/wattbench/wattbench/internal/sampler"
	"github.com/wattbench/wattbench/internal/workload"
)

// aggregate reconciles the sampler's timeline with the executor's
// window into one energy result.
//
// Samples are filtered to window.Start <= ts <= window.End in enqueue
// order; the loop's trailing sample taken after Stop was signaled falls
// outside the window and is dropped here rather than suppressed in the
// sampler. Integration uses the rectangle rule with the fixed nominal
// polling interval, not observed inter-sample gaps: each sample stands
// for one full interval of constant power. The approximation is a known
// systematic error when scheduler jitter is large relative to the
// interval; it is kept for compatibility with previously exported data.
func aggregate(unit string, window workload.Window, samples []sampler.Sample, interval time.Duration) Result {
	selected := make([]device.Power, 0, len(samples))
	var watts float64
	for _, smp := range samples {
		if !window.Contains(smp.Timestamp) {
			continue
		}
		selected = append(selected, smp.Power)
		watts += smp.Power.Watts()
	}

	joules := watts * interval.Seconds()
	duration := window.Duration()

	var avg device.Power
	if duration > 0 {
		avg = device.PowerFromWatts(joules / duration.Seconds())
	}

	return Result{
		Unit:        unit,
		Duration:    duration,
		Energy:      device.EnergyFromJoules(joules),
		AvgPower:    avg,
		Samples:     selected,
		EmptyWindow: len(selected) == 0,
	}
}
