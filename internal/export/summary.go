// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/wattbench/wattbench/internal/profiler"
)

// RenderSummary writes the per-unit results and run totals as a table.
func RenderSummary(out io.Writer, summary *profiler.Summary) error {
	rows := make([][]string, 0, len(summary.Results)+len(summary.Skipped))
	for _, res := range summary.Results {
		rows = append(rows, []string{
			res.Unit,
			strconv.FormatFloat(res.Duration.Seconds(), 'f', 3, 64),
			res.Energy.String(),
			res.AvgPower.String(),
			strconv.Itoa(len(res.Samples)),
		})
	}
	for _, sk := range summary.Skipped {
		rows = append(rows, []string{sk.Unit, "-", "-", "-", "skipped"})
	}

	table := tablewriter.NewWriter(out)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Formatting.Alignment = tw.AlignRight
	})
	table.Header([]string{"Layer", "Duration(s)", "Energy(J)", "Avg Power(W)", "Samples"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\nTotal Duration: %.3f s\nTotal Energy:   %s\nAvg Total Power: %s\n",
		summary.TotalDuration.Seconds(),
		summary.TotalEnergy,
		summary.AvgPower(),
	)
	return err
}
