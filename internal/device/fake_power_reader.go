// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
)

// NOTE: The fake reader is for tests and --device=fake dry runs only.

// fakePowerReader reports a constant power draw plus bounded jitter.
type fakePowerReader struct {
	logger *slog.Logger

	mu        sync.Mutex
	watts     float64
	jitter    float64 // fraction of watts, 0..1
	initErr   error
	readErrFn func(read int) error
	reads     int
	inited    bool
}

var _ PowerReader = (*fakePowerReader)(nil)

// FakeOptFn is a functional option for configuring the fake reader.
type FakeOptFn func(*fakePowerReader)

// WithFakeWatts sets the constant draw reported by the reader.
func WithFakeWatts(w float64) FakeOptFn {
	return func(r *fakePowerReader) {
		r.watts = w
	}
}

// WithFakeJitter sets a uniform random jitter as a fraction of watts.
func WithFakeJitter(fraction float64) FakeOptFn {
	return func(r *fakePowerReader) {
		r.jitter = fraction
	}
}

// WithFakeLogger sets the logger for the fake reader.
func WithFakeLogger(l *slog.Logger) FakeOptFn {
	return func(r *fakePowerReader) {
		r.logger = l.With("reader", "fake")
	}
}

// WithFakeInitError makes Init fail with err wrapped in ErrSourceUnavailable.
func WithFakeInitError(err error) FakeOptFn {
	return func(r *fakePowerReader) {
		r.initErr = err
	}
}

// WithFakeReadErrors injects per-read failures; fn is called with the
// 1-based read count and any non-nil return fails that read.
func WithFakeReadErrors(fn func(read int) error) FakeOptFn {
	return func(r *fakePowerReader) {
		r.readErrFn = fn
	}
}

// NewFakePowerReader creates a fake power source with a 15 W default draw.
func NewFakePowerReader(opts ...FakeOptFn) PowerReader {
	reader := &fakePowerReader{
		logger: slog.Default().With("reader", "fake"),
		watts:  15.0,
	}

	for _, opt := range opts {
		opt(reader)
	}

	return reader
}

func (r *fakePowerReader) Name() string {
	return "fake"
}

func (r *fakePowerReader) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initErr != nil {
		return fmt.Errorf("%w: %s", ErrSourceUnavailable, r.initErr)
	}
	r.inited = true
	return nil
}

func (r *fakePowerReader) Read() (Power, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inited {
		return 0, fmt.Errorf("fake reader is not initialized")
	}

	r.reads++
	if r.readErrFn != nil {
		if err := r.readErrFn(r.reads); err != nil {
			return 0, err
		}
	}

	w := r.watts
	if r.jitter > 0 {
		w += r.watts * r.jitter * (2*rand.Float64() - 1)
	}
	return PowerFromWatts(w), nil
}

func (r *fakePowerReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inited = false
	return nil
}
