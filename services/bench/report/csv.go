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
	"fmt"
	"io"
	"strings"

	"github.com/gusanthiago/bench-node/services/bench"
)

const csvHeader = "name,ops/sec,samples,plugins,min,max\n"

// CSV writes a header and one row per result.
//
// Description:
//
//	Every field is its own Write call on out: the header, then per row
//	name, ops/sec, samples, plugins, min and max. ops/sec is
//	thousands-separated and therefore always quoted, as is the plugin
//	column (reports joined by ","). Names are quoted only when needed.
//
// Example output:
//
//	name,ops/sec,samples,plugins,min,max
//	single with matcher,"749,626",10,"gc-disabled=true",1.32us,1.35us
type CSV struct {
	out io.Writer
}

// NewCSV creates a CSV reporter writing to out.
func NewCSV(out io.Writer) *CSV {
	return &CSV{out: out}
}

// Report implements bench.Reporter.
func (c *CSV) Report(results []*bench.Result) error {
	if err := c.write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		fields := []string{
			csvField(r.Name) + ",",
			quote(FormatOps(r.OpsSec)) + ",",
			fmt.Sprintf("%d,", r.RunsSampled),
			quote(strings.Join(r.PluginReports(), ",")) + ",",
			FormatDuration(r.Histogram.Min) + ",",
			FormatDuration(r.Histogram.Max) + "\n",
		}
		for _, f := range fields {
			if err := c.write(f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *CSV) write(s string) error {
	if _, err := io.WriteString(c.out, s); err != nil {
		return fmt.Errorf("writing csv report: %w", err)
	}
	return nil
}

// csvField quotes s when it contains a separator, quote or line break.
func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quote(s)
	}
	return s
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
