// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package prometheus

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/wattbench/wattbench/internal/device"
)

// fakeRegistry captures the handler registered for /metrics.
type fakeRegistry struct {
	mu       sync.Mutex
	handlers map[string]http.Handler
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{handlers: map[string]http.Handler{}}
}

func (f *fakeRegistry) Register(endpoint, summary, description string, handler http.Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[endpoint] = handler
	return nil
}

func (f *fakeRegistry) handler(endpoint string) http.Handler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlers[endpoint]
}

// stubReader is a scriptable power source.
type stubReader struct {
	mu      sync.Mutex
	watts   float64
	initErr error
	readErr error
	closes  int
}

func (r *stubReader) Name() string { return "stub" }

func (r *stubReader) Init() error { return r.initErr }

func (r *stubReader) Read() (device.Power, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return 0, r.readErr
	}
	return device.PowerFromWatts(r.watts), nil
}

func (r *stubReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closes++
	return nil
}

func (r *stubReader) set(watts float64, readErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watts = watts
	r.readErr = readErr
}

func newTestExporter(t *testing.T, reader *stubReader, fc *testingclock.FakeClock) (*Exporter, *fakeRegistry) {
	t.Helper()
	registry := newFakeRegistry()
	e := NewExporter(reader, registry,
		WithLogger(slog.New(slog.DiscardHandler)),
		WithInterval(time.Second),
		WithClock(fc),
		WithDebugCollectors(nil),
	)
	require.NoError(t, e.Init())
	return e, registry
}

func TestExporterInitRegistersMetricsEndpoint(t *testing.T) {
	reader := &stubReader{watts: 5.0}
	fc := testingclock.NewFakeClock(time.Now())
	e, registry := newTestExporter(t, reader, fc)

	handler := registry.handler("/metrics")
	require.NotNil(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, `wattbench_power_watts{source="stub"} 0`)
	assert.Contains(t, body, "wattbench_build_info")

	assert.Equal(t, "prometheus", e.Name())
}

func TestExporterInitFailsWhenSourceUnavailable(t *testing.T) {
	reader := &stubReader{initErr: fmt.Errorf("%w: no sensor", device.ErrSourceUnavailable)}
	e := NewExporter(reader, newFakeRegistry(),
		WithLogger(slog.New(slog.DiscardHandler)),
		WithDebugCollectors(nil),
	)

	err := e.Init()
	require.Error(t, err)
	assert.ErrorIs(t, err, device.ErrSourceUnavailable)
}

func TestExporterRunUpdatesGauge(t *testing.T) {
	reader := &stubReader{watts: 5.0}
	fc := testingclock.NewFakeClock(time.Now())
	e, _ := newTestExporter(t, reader, fc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	// wait for the run loop to arm its ticker before stepping time
	require.Eventually(t, fc.HasWaiters, 5*time.Second, 10*time.Millisecond)

	fc.Step(time.Second)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(e.power) == 5.0
	}, 5*time.Second, 10*time.Millisecond)

	reader.set(7.5, nil)
	fc.Step(time.Second)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(e.power) == 7.5
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestExporterCountsTransientReadErrors(t *testing.T) {
	reader := &stubReader{watts: 5.0, readErr: fmt.Errorf("flaky bus")}
	fc := testingclock.NewFakeClock(time.Now())
	e, _ := newTestExporter(t, reader, fc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.Eventually(t, fc.HasWaiters, 5*time.Second, 10*time.Millisecond)
	fc.Step(time.Second)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(e.readErrors) == 1.0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Zero(t, testutil.ToFloat64(e.power), "failed reading must not touch the gauge")

	// the loop keeps going and recovers with the next good reading
	reader.set(3.0, nil)
	fc.Step(time.Second)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(e.power) == 3.0
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestExporterStopsWhenSourceLost(t *testing.T) {
	reader := &stubReader{watts: 5.0}
	fc := testingclock.NewFakeClock(time.Now())
	e, _ := newTestExporter(t, reader, fc)

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	require.Eventually(t, fc.HasWaiters, 5*time.Second, 10*time.Millisecond)
	reader.set(0, fmt.Errorf("%w: sensor gone", device.ErrSourceUnavailable))
	fc.Step(time.Second)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, device.ErrSourceUnavailable)
	case <-time.After(5 * time.Second):
		t.Fatal("exporter did not stop after losing its source")
	}
}

func TestExporterShutdownClosesReader(t *testing.T) {
	reader := &stubReader{watts: 5.0}
	fc := testingclock.NewFakeClock(time.Now())
	e, _ := newTestExporter(t, reader, fc)

	require.NoError(t, e.Shutdown())
	assert.Equal(t, 1, reader.closes)
}

func TestExporterUnknownDebugCollector(t *testing.T) {
	reader := &stubReader{watts: 5.0}
	e := NewExporter(reader, newFakeRegistry(),
		WithLogger(slog.New(slog.DiscardHandler)),
		WithDebugCollectors([]string{"bogus"}),
	)
	assert.Error(t, e.Init())
}
