// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattbench/wattbench/internal/device"
	"github.com/wattbench/wattbench/internal/sampler"
	"github.com/wattbench/wattbench/internal/workload"
)

// constantSamples builds n samples of w watts spaced by step, starting at start.
func constantSamples(start time.Time, n int, step time.Duration, w float64) []sampler.Sample {
	samples := make([]sampler.Sample, n)
	for i := range samples {
		samples[i] = sampler.Sample{
			Timestamp: start.Add(time.Duration(i) * step),
			Power:     device.PowerFromWatts(w),
		}
	}
	return samples
}

func TestAggregateRectangleRule(t *testing.T) {
	interval := 20 * time.Millisecond
	start := time.Now()
	window := workload.Window{Start: start, End: start.Add(500 * time.Millisecond)}

	// 25 samples of 5 W at the nominal interval
	samples := constantSamples(start, 25, interval, 5.0)

	res := aggregate("unit", window, samples, interval)

	assert.InDelta(t, 2.5, res.Energy.Joules(), 1e-9, "25 x 5W x 0.02s")
	assert.InDelta(t, 5.0, res.AvgPower.Watts(), 1e-9)
	assert.Len(t, res.Samples, 25)
	assert.False(t, res.EmptyWindow)
}

func TestAggregateUsesNominalIntervalNotObservedGaps(t *testing.T) {
	interval := 20 * time.Millisecond
	start := time.Now()
	window := workload.Window{Start: start, End: start.Add(time.Second)}

	// jittered spacing; the rectangle rule must ignore it
	samples := []sampler.Sample{
		{Timestamp: start.Add(1 * time.Millisecond), Power: device.PowerFromWatts(10)},
		{Timestamp: start.Add(45 * time.Millisecond), Power: device.PowerFromWatts(10)},
		{Timestamp: start.Add(46 * time.Millisecond), Power: device.PowerFromWatts(10)},
	}

	res := aggregate("unit", window, samples, interval)
	assert.InDelta(t, 3*10*0.02, res.Energy.Joules(), 1e-9)
}

func TestAggregateWindowBoundsAreInclusive(t *testing.T) {
	interval := 10 * time.Millisecond
	start := time.Now()
	end := start.Add(100 * time.Millisecond)
	window := workload.Window{Start: start, End: end}

	samples := []sampler.Sample{
		{Timestamp: start.Add(-time.Nanosecond), Power: device.PowerFromWatts(1)}, // before
		{Timestamp: start, Power: device.PowerFromWatts(1)},                       // at start
		{Timestamp: end, Power: device.PowerFromWatts(1)},                         // at end
		{Timestamp: end.Add(time.Nanosecond), Power: device.PowerFromWatts(1)},    // tail after stop
	}

	res := aggregate("unit", window, samples, interval)
	assert.Len(t, res.Samples, 2)
	assert.InDelta(t, 2*1*0.01, res.Energy.Joules(), 1e-9)
}

func TestAggregateEmptySampleSet(t *testing.T) {
	start := time.Now()
	window := workload.Window{Start: start, End: start.Add(5 * time.Millisecond)}

	// all samples outside the window
	samples := constantSamples(start.Add(time.Second), 10, time.Millisecond, 5.0)

	res := aggregate("unit", window, samples, 20*time.Millisecond)
	assert.True(t, res.EmptyWindow)
	assert.Zero(t, res.Energy.Joules())
	assert.Zero(t, res.AvgPower.Watts())
	assert.Empty(t, res.Samples)
	assert.Equal(t, 5*time.Millisecond, res.Duration)
}

func TestAggregateNoSamplesAtAll(t *testing.T) {
	start := time.Now()
	window := workload.Window{Start: start, End: start.Add(time.Millisecond)}

	res := aggregate("unit", window, nil, 20*time.Millisecond)
	assert.True(t, res.EmptyWindow)
	assert.Zero(t, res.Energy.Joules())
}

func TestAggregateZeroDurationWindow(t *testing.T) {
	start := time.Now()
	window := workload.Window{Start: start, End: start}

	samples := []sampler.Sample{{Timestamp: start, Power: device.PowerFromWatts(5)}}
	res := aggregate("unit", window, samples, 20*time.Millisecond)

	// avg power is defined as 0 when duration is 0
	assert.Zero(t, res.AvgPower.Watts())
	assert.InDelta(t, 0.1, res.Energy.Joules(), 1e-9)
}

func TestAggregateDerivedQuantityConsistency(t *testing.T) {
	interval := 20 * time.Millisecond
	start := time.Now()

	for _, n := range []int{1, 5, 25, 100} {
		window := workload.Window{Start: start, End: start.Add(time.Duration(n) * interval)}
		samples := constantSamples(start, n, interval, 7.5)

		res := aggregate("unit", window, samples, interval)
		require.Positive(t, res.Duration)
		assert.InDelta(t,
			res.Energy.Joules(),
			res.AvgPower.Watts()*res.Duration.Seconds(),
			1e-9,
			"avg_power x duration must equal energy for n=%d", n)
	}
}

func TestAggregatePreservesSampleOrder(t *testing.T) {
	interval := 10 * time.Millisecond
	start := time.Now()
	window := workload.Window{Start: start, End: start.Add(time.Second)}

	samples := []sampler.Sample{
		{Timestamp: start.Add(10 * time.Millisecond), Power: device.PowerFromWatts(1)},
		{Timestamp: start.Add(20 * time.Millisecond), Power: device.PowerFromWatts(2)},
		{Timestamp: start.Add(30 * time.Millisecond), Power: device.PowerFromWatts(3)},
	}

	res := aggregate("unit", window, samples, interval)
	require.Len(t, res.Samples, 3)
	assert.InDelta(t, 1, res.Samples[0].Watts(), 1e-9)
	assert.InDelta(t, 2, res.Samples[1].Watts(), 1e-9)
	assert.InDelta(t, 3, res.Samples[2].Watts(), 1e-9)
}
