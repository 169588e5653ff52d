// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jszwec/csvutil"

	"github.com/wattbench/wattbench/internal/device"
	"github.com/wattbench/wattbench/internal/profiler"
)

// row is the exported record schema. Column names and decimal precision
// are fixed; downstream tooling parses them positionally.
type row struct {
	Layer    string `csv:"Layer"`
	Duration string `csv:"Duration (s)"`
	Energy   string `csv:"Energy (J)"`
	AvgPower string `csv:"Avg Power (W)"`
	Samples  string `csv:"Power Samples (W)"`
}

// WriteCSV writes one record per measured unit. Skipped units are not
// exported; they carry no energy data.
func WriteCSV(w io.Writer, results []profiler.Result) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	for _, res := range results {
		rec := row{
			Layer:    res.Unit,
			Duration: strconv.FormatFloat(res.Duration.Seconds(), 'f', 3, 64),
			Energy:   strconv.FormatFloat(res.Energy.Joules(), 'f', 3, 64),
			AvgPower: strconv.FormatFloat(res.AvgPower.Watts(), 'f', 2, 64),
			Samples:  joinSamples(res.Samples),
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encoding record for %s: %w", res.Unit, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the result set to path, truncating any existing file.
func WriteCSVFile(path string, results []profiler.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := WriteCSV(f, results); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// joinSamples renders the raw sample list as comma-joined watts with
// two decimals.
func joinSamples(samples []device.Power) string {
	parts := make([]string, len(samples))
	for i, p := range samples {
		parts[i] = strconv.FormatFloat(p.Watts(), 'f', 2, 64)
	}
	return strings.Join(parts, ",")
}
