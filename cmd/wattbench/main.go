// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/wattbench/wattbench/internal/config"
	"github.com/wattbench/wattbench/internal/device"
	"github.com/wattbench/wattbench/internal/export"
	"github.com/wattbench/wattbench/internal/logger"
	"github.com/wattbench/wattbench/internal/profiler"
	"github.com/wattbench/wattbench/internal/version"
	"github.com/wattbench/wattbench/internal/workload"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := parseArgsAndConfig()
	if err != nil {
		return 1
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	logVersionInfo(log)
	printConfigInfo(log, cfg)

	reader, err := device.NewPowerReader(device.Config{
		Device:    cfg.Device,
		SysFS:     cfg.Host.SysFS,
		FakeWatts: cfg.Fake.Watts,
		Logger:    log,
	})
	if err != nil {
		log.Error("failed to create power reader", "error", err)
		return 1
	}

	units, err := workload.ByName(workload.DefaultSuite(), cfg.Bench.Units)
	if err != nil {
		log.Error("failed to select workload units", "error", err)
		return 1
	}

	prof := profiler.New(reader,
		profiler.WithLogger(log),
		profiler.WithInterval(time.Duration(cfg.Sampler.Interval)),
		profiler.WithRepeats(cfg.Bench.Repeats),
		profiler.WithWarmups(cfg.Bench.Warmups),
		profiler.WithUnitTimeout(time.Duration(cfg.Bench.Timeout)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Starting benchmark run",
		"device", cfg.Device,
		"units", workload.SuiteNames(units),
		"repeats", cfg.Bench.Repeats,
		"warmups", cfg.Bench.Warmups,
	)

	summary, err := prof.Run(ctx, units)
	if err != nil {
		log.Error("benchmark run failed", "error", err)
		return 1
	}

	if err := export.RenderSummary(os.Stdout, summary); err != nil {
		log.Error("failed to render summary", "error", err)
		return 1
	}

	if cfg.Export.File != "" {
		if err := export.WriteCSVFile(cfg.Export.File, summary.Results); err != nil {
			log.Error("failed to write CSV export", "error", err)
			return 1
		}
		log.Info("Wrote CSV export", "path", cfg.Export.File)
	}

	for _, sk := range summary.Skipped {
		log.Warn("unit was skipped", "unit", sk.Unit, "error", sk.Err)
	}

	return 0
}

func parseArgsAndConfig() (*config.Config, error) {
	app := kingpin.New("wattbench", "Energy benchmark harness for repeated workloads.")

	configFile := app.Flag("config.file", "Path to YAML configuration file").String()
	updateConfig := config.RegisterFlags(app)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	log := logger.New("info", "text", os.Stderr)
	cfg := config.DefaultConfig()
	if *configFile != "" {
		loadedCfg, err := config.FromFile(*configFile)
		if err != nil {
			log.Error("Error loading config file", "path", *configFile, "error", err)
			return nil, err
		}
		cfg = loadedCfg
	}

	// command line flags override config file settings
	if err := updateConfig(cfg); err != nil {
		log.Error("Error applying command line flags", "error", err)
		return nil, err
	}

	return cfg, nil
}

func logVersionInfo(log *slog.Logger) {
	v := version.Info()
	log.Info("Wattbench version information",
		"version", v.Version,
		"buildTime", v.BuildTime,
		"gitBranch", v.GitBranch,
		"gitCommit", v.GitCommit,
		"goVersion", v.GoVersion,
		"goOS", v.GoOS,
		"goArch", v.GoArch,
	)
}

func printConfigInfo(log *slog.Logger, cfg *config.Config) {
	if !log.Enabled(context.Background(), slog.LevelInfo) || cfg.Log.Format == "json" {
		return
	}

	fmt.Printf(`
Configuration
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
%s
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
`, cfg)
}
