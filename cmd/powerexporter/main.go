// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/wattbench/wattbench/internal/config"
	"github.com/wattbench/wattbench/internal/device"
	"github.com/wattbench/wattbench/internal/exporter/prometheus"
	"github.com/wattbench/wattbench/internal/logger"
	"github.com/wattbench/wattbench/internal/server"
	"github.com/wattbench/wattbench/internal/service"
	"github.com/wattbench/wattbench/internal/version"
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

	apiServer := server.NewAPIServer(
		server.WithLogger(log),
		server.WithListen(cfg.Web.ListenAddresses, ""),
	)
	exporter := prometheus.NewExporter(reader, apiServer,
		prometheus.WithLogger(log),
		prometheus.WithInterval(time.Duration(cfg.Exporter.Interval)),
	)

	services := []service.Service{
		exporter,
		apiServer,
		service.NewSignalHandler(log, os.Interrupt, syscall.SIGTERM),
	}

	if err := service.Init(log, services); err != nil {
		log.Error("failed to initialize services", "error", err)
		return 1
	}

	log.Info("Starting power exporter", "device", cfg.Device, "listen", cfg.Web.ListenAddresses)
	if err := service.Run(context.Background(), log, services); err != nil {
		log.Error("power exporter terminated with an error", "error", err)
		return 1
	}

	log.Info("Graceful shutdown completed")
	return 0
}

func parseArgsAndConfig() (*config.Config, error) {
	app := kingpin.New("powerexporter", "Continuous power draw exporter for Prometheus.")

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
	log.Info("Power exporter version information",
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
