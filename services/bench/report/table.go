// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/gusanthiago/bench-node/services/bench"
	"github.com/olekukonko/tablewriter"
)

// Table renders the results as an aligned ASCII table.
type Table struct {
	out io.Writer
}

// NewTable creates a table reporter writing to out.
func NewTable(out io.Writer) *Table {
	return &Table{out: out}
}

// Report implements bench.Reporter.
func (t *Table) Report(results []*bench.Result) error {
	table := tablewriter.NewWriter(t.out)
	table.SetHeader([]string{"Name", "Ops/sec", "Samples", "Iterations", "Min", "Max", "Plugins"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
	})

	for _, r := range results {
		table.Append([]string{
			r.Name,
			FormatOps(r.OpsSec),
			strconv.Itoa(r.RunsSampled),
			FormatOps(float64(r.Iterations)),
			FormatDuration(r.Histogram.Min),
			FormatDuration(r.Histogram.Max),
			strings.Join(r.PluginReports(), " "),
		})
	}
	table.Render()
	return nil
}
