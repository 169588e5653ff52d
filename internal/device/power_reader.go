// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrSourceUnavailable indicates that the power source device or driver
// could not be opened. No power accounting is possible without the
// source, so callers must treat this as fatal to the whole run.
var ErrSourceUnavailable = errors.New("power source unavailable")

// PowerReader reads the instantaneous power draw of a hardware power
// rail. Implementations own the device handle: Init must be called once
// before Read, and Close must be called on every exit path, both after
// a normal stop and after an Init failure further up the stack.
//
// Read is a single blocking call; it is invoked from exactly one
// sampling goroutine at a time. Unit conversion from source-native
// units (microwatts for hwmon, milliwatts for NVML) to Power is the
// reader's responsibility.
type PowerReader interface {
	// Name returns a short identifier for the power source
	Name() string

	// Init opens the underlying device; a failure wraps ErrSourceUnavailable
	Init() error

	// Read returns the current power draw
	Read() (Power, error)

	// Close releases the device handle; safe to call more than once
	Close() error
}

// Device kinds selectable via configuration.
const (
	DeviceCPU         = "cpu"
	DeviceAccelerator = "accelerator"
	DeviceFake        = "fake"
)

// Config carries the reader selection and source specific settings.
type Config struct {
	Device    string
	SysFS     string  // base sysfs path for the cpu (hwmon) reader
	GPUIndex  int     // accelerator index for the nvml reader
	FakeWatts float64 // constant draw reported by the fake reader
	Logger    *slog.Logger
}

// NewPowerReader constructs the PowerReader for the configured device.
func NewPowerReader(cfg Config) (PowerReader, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Device {
	case DeviceCPU:
		return NewHwmonPowerReader(cfg.SysFS, WithHwmonLogger(logger)), nil
	case DeviceAccelerator:
		return NewNVMLPowerReader(cfg.GPUIndex, WithNVMLLogger(logger)), nil
	case DeviceFake:
		return NewFakePowerReader(WithFakeWatts(cfg.FakeWatts), WithFakeLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown power device: %q", cfg.Device)
	}
}
