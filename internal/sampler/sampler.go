// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package sampler

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"github.com/wattbench/wattbench/internal/device"
)

// Sample is one timestamped power reading. Timestamps come from the
// monotonic clock and are non-decreasing in enqueue order; the same
// clock source is used for measurement windows, which is what makes the
// two comparable.
type Sample struct {
	Timestamp time.Time
	Power     device.Power
}

// Sampler polls a PowerReader on a dedicated goroutine at a fixed
// interval and buffers the readings until drained.
//
// The buffer is single-producer/single-consumer: only the sampling
// goroutine appends, and Drain must only be called after Stop has
// returned. Stop acts as a full join barrier; no sample is appended
// after it returns.
type Sampler struct {
	reader   device.PowerReader
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger

	mu      sync.Mutex
	samples []Sample

	stopCh    chan struct{}
	doneCh    chan struct{}
	stopOnce  sync.Once
	startOnce sync.Once
	started   atomic.Bool
}

// OptionFn is a function that sets one or more options of the Sampler.
type OptionFn func(*Sampler)

// WithLogger sets the logger for the Sampler.
func WithLogger(logger *slog.Logger) OptionFn {
	return func(s *Sampler) {
		s.logger = logger.With("service", "sampler")
	}
}

// WithClock sets the clock used for timestamps and pacing.
func WithClock(c clock.Clock) OptionFn {
	return func(s *Sampler) {
		s.clock = c
	}
}

// New creates a Sampler polling reader every interval.
func New(reader device.PowerReader, interval time.Duration, applyOpts ...OptionFn) *Sampler {
	s := &Sampler{
		reader:   reader,
		interval: interval,
		clock:    clock.RealClock{},
		logger:   slog.Default().With("service", "sampler"),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	for _, apply := range applyOpts {
		apply(s)
	}

	return s
}

// Start opens the power source and launches the sampling loop. An open
// failure wraps device.ErrSourceUnavailable and leaves nothing running.
func (s *Sampler) Start() error {
	var err error
	first := false
	s.startOnce.Do(func() {
		first = true
		if initErr := s.reader.Init(); initErr != nil {
			err = fmt.Errorf("opening power source %s: %w", s.reader.Name(), initErr)
			return
		}
		s.started.Store(true)
		go s.loop()
	})
	if !first {
		return fmt.Errorf("sampler already used; sessions must create a fresh sampler")
	}
	return err
}

// loop performs exactly one read per iteration, then waits out the
// polling interval. The actual sampling period is therefore interval +
// read latency + scheduler jitter; the skew is accepted, not corrected.
func (s *Sampler) loop() {
	defer close(s.doneCh)

	for {
		p, err := s.reader.Read()
		if err != nil {
			// transient failure: skip this sample, keep sampling
			s.logger.Warn("Power read failed, skipping sample", "error", err)
		} else {
			s.append(Sample{Timestamp: s.clock.Now(), Power: p})
		}

		select {
		case <-s.stopCh:
			return
		case <-s.clock.After(s.interval):
		}
	}
}

func (s *Sampler) append(smp Sample) {
	s.mu.Lock()
	s.samples = append(s.samples, smp)
	s.mu.Unlock()
}

// Stop signals the loop to exit after its current iteration and blocks
// until the sampling goroutine has terminated and the power source is
// released. Safe to call more than once.
func (s *Sampler) Stop() {
	if !s.started.Load() {
		return
	}

	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
		if err := s.reader.Close(); err != nil {
			s.logger.Warn("Failed to close power source", "error", err)
		}
	})
	// later callers also wait for the join
	<-s.doneCh
}

// Drain returns all buffered samples in enqueue order and clears the
// buffer. Only valid after Stop has returned.
func (s *Sampler) Drain() []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	samples := s.samples
	s.samples = nil
	return samples
}
