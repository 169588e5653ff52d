// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

// Package prometheus publishes the instantaneous power draw of a
// source as Prometheus metrics, refreshed on a fixed interval
// independently of any benchmark run.
package prometheus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/utils/clock"

	"github.com/wattbench/wattbench/internal/device"
	"github.com/wattbench/wattbench/internal/service"
	"github.com/wattbench/wattbench/internal/version"
)

// APIRegistry is the part of the HTTP server the exporter needs.
type APIRegistry interface {
	Register(endpoint, summary, description string, handler http.Handler) error
}

type Opts struct {
	logger          *slog.Logger
	interval        time.Duration
	clock           clock.WithTicker
	debugCollectors map[string]bool
}

// DefaultOpts returns a new Opts with defaults set
func DefaultOpts() Opts {
	return Opts{
		logger:   slog.Default(),
		interval: 1 * time.Second,
		clock:    clock.RealClock{},
		debugCollectors: map[string]bool{
			"go": true,
		},
	}
}

// OptionFn sets one or more options in the Opts struct
type OptionFn func(*Opts)

// WithLogger sets the logger for the Exporter
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Opts) {
		o.logger = logger
	}
}

// WithInterval sets the refresh interval of the power gauge
func WithInterval(d time.Duration) OptionFn {
	return func(o *Opts) {
		o.interval = d
	}
}

// WithClock sets the clock used for the refresh ticker
func WithClock(c clock.WithTicker) OptionFn {
	return func(o *Opts) {
		o.clock = c
	}
}

// WithDebugCollectors sets the process-level debug collectors
func WithDebugCollectors(names []string) OptionFn {
	return func(o *Opts) {
		o.debugCollectors = make(map[string]bool)
		for _, name := range names {
			o.debugCollectors[name] = true
		}
	}
}

// Exporter reads a power source on a fixed interval and exposes the
// latest reading as a gauge on /metrics.
type Exporter struct {
	logger          *slog.Logger
	reader          device.PowerReader
	server          APIRegistry
	registry        *prom.Registry
	interval        time.Duration
	clock           clock.WithTicker
	debugCollectors map[string]bool

	power      prom.Gauge
	readErrors prom.Counter
}

var (
	_ service.Initializer = (*Exporter)(nil)
	_ service.Runner      = (*Exporter)(nil)
	_ service.Shutdowner  = (*Exporter)(nil)
)

// NewExporter creates a new Exporter instance
func NewExporter(reader device.PowerReader, s APIRegistry, applyOpts ...OptionFn) *Exporter {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	return &Exporter{
		logger:          opts.logger.With("service", "prometheus"),
		reader:          reader,
		server:          s,
		registry:        prom.NewRegistry(),
		interval:        opts.interval,
		clock:           opts.clock,
		debugCollectors: opts.debugCollectors,
	}
}

func collectorForName(name string) (prom.Collector, error) {
	switch name {
	case "go":
		return collectors.NewGoCollector(), nil
	case "process":
		return collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), nil
	default:
		return nil, fmt.Errorf("unknown collector: %s", name)
	}
}

func buildInfoCollector() prom.Collector {
	info := version.Info()
	g := prom.NewGauge(prom.GaugeOpts{
		Name: "wattbench_build_info",
		Help: "Build and version information",
		ConstLabels: prom.Labels{
			"version":    info.Version,
			"revision":   info.GitCommit,
			"go_version": info.GoVersion,
		},
	})
	g.Set(1)
	return g
}

func (e *Exporter) Name() string {
	return "prometheus"
}

func (e *Exporter) Init() error {
	e.logger.Info("Initializing Prometheus exporter")

	for name := range e.debugCollectors {
		c, err := collectorForName(name)
		if err != nil {
			e.logger.Error("Error creating collector", "collector", name, "error", err)
			return err
		}
		e.logger.Info("Enabling debug collector", "collector", name)
		e.registry.MustRegister(c)
	}
	e.registry.MustRegister(buildInfoCollector())

	e.power = prom.NewGauge(prom.GaugeOpts{
		Name:        "wattbench_power_watts",
		Help:        "Latest power reading of the measured source in watts",
		ConstLabels: prom.Labels{"source": e.reader.Name()},
	})
	e.readErrors = prom.NewCounter(prom.CounterOpts{
		Name:        "wattbench_power_read_errors_total",
		Help:        "Number of power readings that failed and were skipped",
		ConstLabels: prom.Labels{"source": e.reader.Name()},
	})
	e.registry.MustRegister(e.power, e.readErrors)

	if err := e.reader.Init(); err != nil {
		return fmt.Errorf("opening power source %s: %w", e.reader.Name(), err)
	}

	return e.server.Register("/metrics", "Metrics", "Prometheus metrics",
		promhttp.HandlerFor(
			e.registry,
			promhttp.HandlerOpts{
				EnableOpenMetrics: true,
				Registry:          e.registry,
			},
		))
}

// Run refreshes the power gauge every interval until the context is
// cancelled. Transient read failures are counted and skipped; a source
// that has become unavailable terminates the exporter.
func (e *Exporter) Run(ctx context.Context) error {
	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C():
			reading, err := e.reader.Read()
			if errors.Is(err, device.ErrSourceUnavailable) {
				return fmt.Errorf("power source lost: %w", err)
			}
			if err != nil {
				e.readErrors.Inc()
				e.logger.Warn("skipping failed power reading", "error", err)
				continue
			}
			e.power.Set(reading.Watts())
		}
	}
}

func (e *Exporter) Shutdown() error {
	e.logger.Info("shutting down Prometheus exporter")
	return e.reader.Close()
}
