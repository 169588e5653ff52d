// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"fmt"
	"log/slog"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// nvmlPowerReader reads accelerator power draw through NVML.
// DeviceGetPowerUsage reports milliwatts for the whole board.
type nvmlPowerReader struct {
	logger *slog.Logger
	index  int
	device nvml.Device
	inited bool
}

var _ PowerReader = (*nvmlPowerReader)(nil)

// NVMLOptionFn configures an nvmlPowerReader.
type NVMLOptionFn func(*nvmlPowerReader)

// WithNVMLLogger sets the logger for the NVML reader.
func WithNVMLLogger(logger *slog.Logger) NVMLOptionFn {
	return func(r *nvmlPowerReader) {
		r.logger = logger.With("reader", "nvml")
	}
}

// NewNVMLPowerReader creates a reader for the accelerator at the given index.
func NewNVMLPowerReader(index int, opts ...NVMLOptionFn) PowerReader {
	ret := &nvmlPowerReader{
		logger: slog.Default().With("reader", "nvml"),
		index:  index,
	}

	for _, opt := range opts {
		opt(ret)
	}

	return ret
}

func (r *nvmlPowerReader) Name() string {
	return "nvml"
}

func (r *nvmlPowerReader) Init() error {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return fmt.Errorf("%w: nvml init failed: %s", ErrSourceUnavailable, nvml.ErrorString(ret))
	}

	device, ret := nvml.DeviceGetHandleByIndex(r.index)
	if ret != nvml.SUCCESS {
		_ = nvml.Shutdown()
		return fmt.Errorf("%w: no accelerator at index %d: %s", ErrSourceUnavailable, r.index, nvml.ErrorString(ret))
	}

	if name, ret := device.GetName(); ret == nvml.SUCCESS {
		r.logger.Debug("Opened accelerator", "index", r.index, "name", name)
	}

	r.device = device
	r.inited = true
	return nil
}

func (r *nvmlPowerReader) Read() (Power, error) {
	if !r.inited {
		return 0, fmt.Errorf("nvml reader is not initialized")
	}

	milliWatts, ret := r.device.GetPowerUsage()
	if ret != nvml.SUCCESS {
		return 0, fmt.Errorf("failed to read accelerator power: %s", nvml.ErrorString(ret))
	}
	return Power(milliWatts) * MilliWatt, nil
}

func (r *nvmlPowerReader) Close() error {
	if !r.inited {
		return nil
	}
	r.inited = false

	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		return fmt.Errorf("nvml shutdown failed: %s", nvml.ErrorString(ret))
	}
	return nil
}
