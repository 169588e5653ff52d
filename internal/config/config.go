// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v3"

	"github.com/wattbench/wattbench/internal/device"
)

type (
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	}

	Sampler struct {
		Interval Duration `yaml:"interval"`
	}

	Bench struct {
		Repeats int      `yaml:"repeats"`
		Warmups int      `yaml:"warmups"`
		Timeout Duration `yaml:"timeout"`
		Units   []string `yaml:"units"`
	}

	Export struct {
		File string `yaml:"file"`
	}

	Exporter struct {
		Interval Duration `yaml:"interval"`
	}

	Web struct {
		ListenAddresses []string `yaml:"listenAddresses"`
	}

	Host struct {
		SysFS string `yaml:"sysfs"`
	}

	Fake struct {
		Watts float64 `yaml:"watts"`
	}

	Config struct {
		Log      Log      `yaml:"log"`
		Device   string   `yaml:"device"`
		Sampler  Sampler  `yaml:"sampler"`
		Bench    Bench    `yaml:"bench"`
		Export   Export   `yaml:"export"`
		Exporter Exporter `yaml:"exporter"`
		Web      Web      `yaml:"web"`
		Host     Host     `yaml:"host"`
		Fake     Fake     `yaml:"fake"`
	}
)

const (
	LogLevelFlag  = "log.level"
	LogFormatFlag = "log.format"

	DeviceFlag          = "device"
	SamplerIntervalFlag = "sampler.interval"

	BenchRepeatsFlag = "bench.repeats"
	BenchWarmupsFlag = "bench.warmups"
	BenchTimeoutFlag = "bench.timeout"
	BenchUnitsFlag   = "bench.units"

	ExportFileFlag = "export.file"

	ExporterIntervalFlag = "exporter.interval"
	WebListenFlag        = "web.listen-address"

	HostSysFSFlag = "host.sysfs"
	FakeWattsFlag = "fake.watts"
)

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Device: device.DeviceCPU,
		Sampler: Sampler{
			Interval: Duration(20 * time.Millisecond),
		},
		Bench: Bench{
			Repeats: 100,
			Warmups: 5,
		},
		Exporter: Exporter{
			Interval: Duration(1 * time.Second),
		},
		Web: Web{
			ListenAddresses: []string{":8000"},
		},
		Host: Host{
			SysFS: "/sys",
		},
		Fake: Fake{
			Watts: 15.0,
		},
	}
}

// Load loads configuration from an io.Reader
func Load(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.sanitize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromFile loads configuration from a file
func FromFile(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Load(file)
}

type ConfigUpdaterFn func(*Config) error

// RegisterFlags registers command-line flags with the kingpin app and
// returns a ConfigUpdaterFn that applies parsed flags to the config.
// Command line arguments override config file settings.
func RegisterFlags(app *kingpin.Application) ConfigUpdaterFn {
	// track flags that were explicitly set
	flagsSet := map[string]bool{}

	app.PreAction(func(ctx *kingpin.ParseContext) error {
		// Clear the map in case this function is called multiple times
		flagsSet = map[string]bool{}

		for _, element := range ctx.Elements {
			if flag, ok := element.Clause.(*kingpin.FlagClause); ok && element.Value != nil {
				flagsSet[flag.Model().Name] = true
			}
		}
		return nil
	})

	logLevel := app.Flag(LogLevelFlag, "Logging level: debug, info, warn, error").Default("info").Enum("debug", "info", "warn", "error")
	logFormat := app.Flag(LogFormatFlag, "Logging format: text or json").Default("text").Enum("text", "json")

	dev := app.Flag(DeviceFlag, "Power source to measure: cpu, accelerator or fake").Default(device.DeviceCPU).Enum(device.DeviceCPU, device.DeviceAccelerator, device.DeviceFake)
	samplerInterval := app.Flag(SamplerIntervalFlag, "Power polling interval").Default("20ms").Duration()

	repeats := app.Flag(BenchRepeatsFlag, "Timed executions per unit").Default("100").Int()
	warmups := app.Flag(BenchWarmupsFlag, "Warmup executions per unit, excluded from measurement").Default("5").Int()
	timeout := app.Flag(BenchTimeoutFlag, "Per-unit wall clock budget; 0 disables").Default("0s").Duration()
	units := app.Flag(BenchUnitsFlag, "Subset of workload units to run (comma separated)").Default("").String()

	exportFile := app.Flag(ExportFileFlag, "CSV output path; empty disables the CSV export").Default("").String()

	exporterInterval := app.Flag(ExporterIntervalFlag, "Continuous exporter scrape interval").Default("1s").Duration()
	webListen := app.Flag(WebListenFlag, "Web server listen address").Default(":8000").Strings()

	sysfs := app.Flag(HostSysFSFlag, "Path to sysfs filesystem").Default("/sys").String()
	fakeWatts := app.Flag(FakeWattsFlag, "Constant reading of the fake power source in watts").Default("15.0").Float64()

	return func(cfg *Config) error {
		if flagsSet[LogLevelFlag] {
			cfg.Log.Level = *logLevel
		}
		if flagsSet[LogFormatFlag] {
			cfg.Log.Format = *logFormat
		}

		if flagsSet[DeviceFlag] {
			cfg.Device = *dev
		}
		if flagsSet[SamplerIntervalFlag] {
			cfg.Sampler.Interval = Duration(*samplerInterval)
		}

		if flagsSet[BenchRepeatsFlag] {
			cfg.Bench.Repeats = *repeats
		}
		if flagsSet[BenchWarmupsFlag] {
			cfg.Bench.Warmups = *warmups
		}
		if flagsSet[BenchTimeoutFlag] {
			cfg.Bench.Timeout = Duration(*timeout)
		}
		if flagsSet[BenchUnitsFlag] {
			cfg.Bench.Units = splitList(*units)
		}

		if flagsSet[ExportFileFlag] {
			cfg.Export.File = *exportFile
		}

		if flagsSet[ExporterIntervalFlag] {
			cfg.Exporter.Interval = Duration(*exporterInterval)
		}
		if flagsSet[WebListenFlag] {
			cfg.Web.ListenAddresses = *webListen
		}

		if flagsSet[HostSysFSFlag] {
			cfg.Host.SysFS = *sysfs
		}
		if flagsSet[FakeWattsFlag] {
			cfg.Fake.Watts = *fakeWatts
		}

		cfg.sanitize()
		return cfg.Validate()
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) sanitize() {
	c.Log.Level = strings.TrimSpace(c.Log.Level)
	c.Log.Format = strings.TrimSpace(c.Log.Format)
	c.Device = strings.TrimSpace(c.Device)
	c.Export.File = strings.TrimSpace(c.Export.File)
	c.Host.SysFS = strings.TrimSpace(c.Host.SysFS)
}

// Validate checks for configuration errors
func (c *Config) Validate() error {
	var errs []string
	{ // log level
		validLogLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if _, valid := validLogLevels[c.Log.Level]; !valid {
			errs = append(errs, fmt.Sprintf("invalid log level: %s", c.Log.Level))
		}
	}
	{ // log format
		validFormats := map[string]bool{
			"text": true,
			"json": true,
		}
		if _, valid := validFormats[c.Log.Format]; !valid {
			errs = append(errs, fmt.Sprintf("invalid log format: %s", c.Log.Format))
		}
	}
	{ // device
		validDevices := map[string]bool{
			device.DeviceCPU:         true,
			device.DeviceAccelerator: true,
			device.DeviceFake:        true,
		}
		if _, valid := validDevices[c.Device]; !valid {
			errs = append(errs, fmt.Sprintf("invalid device: %s", c.Device))
		}
	}
	{ // sampling and benchmark parameters
		if c.Sampler.Interval <= 0 {
			errs = append(errs, "sampler interval must be positive")
		}
		if c.Bench.Repeats < 1 {
			errs = append(errs, fmt.Sprintf("bench repeats must be at least 1, got %d", c.Bench.Repeats))
		}
		if c.Bench.Warmups < 0 {
			errs = append(errs, fmt.Sprintf("bench warmups must not be negative, got %d", c.Bench.Warmups))
		}
		if c.Bench.Timeout < 0 {
			errs = append(errs, "bench timeout must not be negative")
		}
	}
	{ // exporter
		if c.Exporter.Interval <= 0 {
			errs = append(errs, "exporter interval must be positive")
		}
		if len(c.Web.ListenAddresses) == 0 {
			errs = append(errs, "web listen address must be set")
		}
	}
	{ // fake source
		if c.Device == device.DeviceFake && c.Fake.Watts <= 0 {
			errs = append(errs, "fake watts must be positive")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, ", "))
	}

	return nil
}

func (c *Config) String() string {
	bytes, err := yaml.Marshal(c)
	if err == nil {
		return string(bytes)
	}
	// yaml marshal of a plain struct should not fail; fall back to a
	// manually built string just in case
	return c.manualString()
}

func (c *Config) manualString() string {
	cfgs := []struct {
		Name  string
		Value string
	}{
		{LogLevelFlag, c.Log.Level},
		{LogFormatFlag, c.Log.Format},
		{DeviceFlag, c.Device},
		{SamplerIntervalFlag, time.Duration(c.Sampler.Interval).String()},
		{BenchRepeatsFlag, fmt.Sprintf("%d", c.Bench.Repeats)},
		{BenchWarmupsFlag, fmt.Sprintf("%d", c.Bench.Warmups)},
		{ExportFileFlag, c.Export.File},
		{ExporterIntervalFlag, time.Duration(c.Exporter.Interval).String()},
		{WebListenFlag, strings.Join(c.Web.ListenAddresses, ",")},
		{HostSysFSFlag, c.Host.SysFS},
	}
	sb := strings.Builder{}

	for _, cfg := range cfgs {
		sb.WriteString(cfg.Name)
		sb.WriteString(": ")
		sb.WriteString(cfg.Value)
		sb.WriteString("\n")
	}

	return sb.String()
}
