// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// hwmonPowerReader reads board power from the hwmon sysfs interface.
// Board-level rails (e.g. the INA3221 monitors on Jetson boards) expose
// instantaneous power as microwatt values in power<N>_input files.
type hwmonPowerReader struct {
	logger   *slog.Logger
	basePath string // <sysfs>/class/hwmon
	rail     *hwmonRail
}

var _ PowerReader = (*hwmonPowerReader)(nil)

// hwmonRail is one discovered power sensor channel.
type hwmonRail struct {
	name string
	path string // power<N>_input or power<N>_average file
}

// HwmonOptionFn configures a hwmonPowerReader.
type HwmonOptionFn func(*hwmonPowerReader)

// WithHwmonLogger sets the logger for the hwmon reader.
func WithHwmonLogger(logger *slog.Logger) HwmonOptionFn {
	return func(r *hwmonPowerReader) {
		r.logger = logger.With("reader", "hwmon")
	}
}

// NewHwmonPowerReader creates a reader that scans sysfsPath/class/hwmon
// for power sensors and reads the highest-priority rail it finds.
func NewHwmonPowerReader(sysfsPath string, opts ...HwmonOptionFn) PowerReader {
	ret := &hwmonPowerReader{
		logger:   slog.Default().With("reader", "hwmon"),
		basePath: filepath.Join(sysfsPath, "class", "hwmon"),
	}

	for _, opt := range opts {
		opt(ret)
	}

	return ret
}

func (r *hwmonPowerReader) Name() string {
	return "hwmon"
}

// Init discovers power rails and verifies the selected rail is readable.
func (r *hwmonPowerReader) Init() error {
	rails, err := discoverRails(r.basePath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSourceUnavailable, err)
	}

	rail := selectRail(rails)
	if _, err := readMicroWatts(rail.path); err != nil {
		return fmt.Errorf("%w: rail %s is not readable: %s", ErrSourceUnavailable, rail.name, err)
	}

	r.rail = rail
	r.logger.Debug("Selected hwmon power rail", "rail", rail.name, "path", rail.path)
	return nil
}

func (r *hwmonPowerReader) Read() (Power, error) {
	if r.rail == nil {
		return 0, fmt.Errorf("hwmon reader is not initialized")
	}

	uw, err := readMicroWatts(r.rail.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read power from %s: %w", r.rail.path, err)
	}
	return Power(uw) * MicroWatt, nil
}

func (r *hwmonPowerReader) Close() error {
	// sensor files are opened per read; nothing is held between reads
	r.rail = nil
	return nil
}

// railPriority orders rail labels from most to least representative of
// total board draw. Jetson INA3221 labels first, then common server and
// package rails.
var railPriority = []string{
	"vdd_in", "pow_tot", "total", "board",
	"platform", "psys", "socket", "package", "cpu",
}

// selectRail picks the highest-priority rail; discovery guarantees at
// least one rail is present.
func selectRail(rails []*hwmonRail) *hwmonRail {
	byName := make(map[string]*hwmonRail, len(rails))
	for _, rail := range rails {
		byName[rail.name] = rail
	}

	for _, want := range railPriority {
		if rail, ok := byName[want]; ok {
			return rail
		}
	}
	return rails[0]
}

var invalidRailChars = regexp.MustCompile("[^a-z0-9:_]")

func cleanRailName(name string) string {
	lower := strings.ToLower(name)
	replaced := invalidRailChars.ReplaceAllLiteralString(lower, "_")
	return strings.Trim(replaced, "_")
}

// discoverRails scans all hwmon chips for power<N> sensor channels.
func discoverRails(basePath string) ([]*hwmonRail, error) {
	chips, err := os.ReadDir(basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("hwmon not available: %w", err)
		}
		return nil, fmt.Errorf("failed to read hwmon directory: %w", err)
	}

	var rails []*hwmonRail
	for _, entry := range chips {
		chipPath := filepath.Join(basePath, entry.Name())
		if !entry.IsDir() && !isSymlink(chipPath) {
			continue
		}

		chipRails, err := chipPowerRails(chipPath)
		if err != nil {
			// skip broken chips, keep scanning the rest
			continue
		}
		rails = append(rails, chipRails...)
	}

	if len(rails) == 0 {
		return nil, fmt.Errorf("no hwmon power rails found under %s", basePath)
	}

	sort.Slice(rails, func(i, j int) bool { return rails[i].name < rails[j].name })
	return rails, nil
}

var powerSensorRe = regexp.MustCompile(`^power(\d+)_(.+)$`)

// chipPowerRails lists the power sensor channels of a single hwmon chip.
func chipPowerRails(chipPath string) ([]*hwmonRail, error) {
	files, err := os.ReadDir(chipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read hwmon chip %s: %w", chipPath, err)
	}

	// sensor number -> property -> file name
	sensors := map[int]map[string]string{}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		matches := powerSensorRe.FindStringSubmatch(file.Name())
		if len(matches) != 3 {
			continue
		}
		num, _ := strconv.Atoi(matches[1])
		if sensors[num] == nil {
			sensors[num] = map[string]string{}
		}
		sensors[num][matches[2]] = file.Name()
	}

	var rails []*hwmonRail
	for num, props := range sensors {
		// prefer the averaged value over the instantaneous one
		input, ok := props["average"]
		if !ok {
			if input, ok = props["input"]; !ok {
				continue
			}
		}

		name := ""
		if labelFile, hasLabel := props["label"]; hasLabel {
			if data, err := os.ReadFile(filepath.Join(chipPath, labelFile)); err == nil {
				name = cleanRailName(string(data))
			}
		}
		if name == "" {
			name = fmt.Sprintf("%s_power%d", filepath.Base(chipPath), num)
		}

		rails = append(rails, &hwmonRail{
			name: name,
			path: filepath.Join(chipPath, input),
		})
	}

	return rails, nil
}

func isSymlink(path string) bool {
	fi, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeSymlink != 0
}

// readMicroWatts reads and parses one hwmon power value.
func readMicroWatts(path string) (uint64, error) {
	data, err := sysReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
}

// sysReadFile is a simplified os.ReadFile that invokes syscall.Read
// directly. Some hwmon drivers are broken and return EAGAIN, which makes
// Go's poll-based os.ReadFile spin forever; a single raw read either
// returns data or fails immediately.
func sysReadFile(file string) ([]byte, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	b := make([]byte, 128)
	n, err := unix.Read(int(f.Fd()), b)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("failed to read file: %q, read returned negative bytes value: %d", file, n)
	}

	return b[:n], nil
}
