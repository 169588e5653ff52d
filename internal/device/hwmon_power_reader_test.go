// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeHwmonChip lays out a fake hwmon chip directory with the given
// power sensor files. values maps file name -> content.
func writeHwmonChip(t *testing.T, sysfs, chip string, values map[string]string) {
	t.Helper()
	chipPath := filepath.Join(sysfs, "class", "hwmon", chip)
	require.NoError(t, os.MkdirAll(chipPath, 0o755))
	for name, content := range values {
		require.NoError(t, os.WriteFile(filepath.Join(chipPath, name), []byte(content), 0o644))
	}
}

func TestHwmonReaderReadsLabeledRail(t *testing.T) {
	sysfs := t.TempDir()
	writeHwmonChip(t, sysfs, "hwmon0", map[string]string{
		"power1_input": "5000000\n", // 5 W in microwatts
		"power1_label": "VDD_IN\n",
	})

	reader := NewHwmonPowerReader(sysfs)
	require.NoError(t, reader.Init())
	defer func() { _ = reader.Close() }()

	p, err := reader.Read()
	require.NoError(t, err)
	assert.InDelta(t, 5.0, p.Watts(), 1e-9)
}

func TestHwmonReaderPrefersTotalRail(t *testing.T) {
	sysfs := t.TempDir()
	writeHwmonChip(t, sysfs, "hwmon0", map[string]string{
		"power1_input": "1000000\n",
		"power1_label": "VDD_CPU\n",
		"power2_input": "7000000\n",
		"power2_label": "VDD_IN\n",
	})

	reader := NewHwmonPowerReader(sysfs)
	require.NoError(t, reader.Init())

	p, err := reader.Read()
	require.NoError(t, err)
	assert.InDelta(t, 7.0, p.Watts(), 1e-9, "vdd_in outranks vdd_cpu")
}

func TestHwmonReaderPrefersAverageFile(t *testing.T) {
	sysfs := t.TempDir()
	writeHwmonChip(t, sysfs, "hwmon0", map[string]string{
		"power1_input":   "3000000\n",
		"power1_average": "4000000\n",
		"power1_label":   "total\n",
	})

	reader := NewHwmonPowerReader(sysfs)
	require.NoError(t, reader.Init())

	p, err := reader.Read()
	require.NoError(t, err)
	assert.InDelta(t, 4.0, p.Watts(), 1e-9)
}

func TestHwmonReaderUnlabeledRailGetsSyntheticName(t *testing.T) {
	sysfs := t.TempDir()
	writeHwmonChip(t, sysfs, "hwmon3", map[string]string{
		"power1_input": "2500000\n",
	})

	reader := NewHwmonPowerReader(sysfs)
	require.NoError(t, reader.Init())

	p, err := reader.Read()
	require.NoError(t, err)
	assert.InDelta(t, 2.5, p.Watts(), 1e-9)
}

func TestHwmonReaderNoSysfs(t *testing.T) {
	reader := NewHwmonPowerReader(filepath.Join(t.TempDir(), "missing"))
	err := reader.Init()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestHwmonReaderNoPowerSensors(t *testing.T) {
	sysfs := t.TempDir()
	writeHwmonChip(t, sysfs, "hwmon0", map[string]string{
		"temp1_input": "42000\n",
	})

	reader := NewHwmonPowerReader(sysfs)
	err := reader.Init()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestHwmonReaderGarbageValue(t *testing.T) {
	sysfs := t.TempDir()
	writeHwmonChip(t, sysfs, "hwmon0", map[string]string{
		"power1_input": "not-a-number\n",
		"power1_label": "VDD_IN\n",
	})

	reader := NewHwmonPowerReader(sysfs)
	err := reader.Init()
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestHwmonReaderRequiresInit(t *testing.T) {
	reader := NewHwmonPowerReader(t.TempDir())
	_, err := reader.Read()
	assert.Error(t, err)
}

func TestCleanRailName(t *testing.T) {
	tt := []struct {
		in   string
		want string
	}{
		{"VDD_IN\n", "vdd_in"},
		{"Power TOT", "power_tot"},
		{"  SOC ", "soc"},
	}
	for _, tc := range tt {
		assert.Equal(t, tc.want, cleanRailName(tc.in))
	}
}
