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

// Text prints one line per result:
//
//	single with matcher x 749,626 ops/sec (10 runs sampled) gc-disabled=true min..max=(1.32us...1.35us)
type Text struct {
	out io.Writer
}

// NewText creates a text reporter writing to out.
func NewText(out io.Writer) *Text {
	return &Text{out: out}
}

// Report implements bench.Reporter.
func (t *Text) Report(results []*bench.Result) error {
	for _, r := range results {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s x %s ops/sec (%d runs sampled) ", r.Name, FormatOps(r.OpsSec), r.RunsSampled)
		for _, report := range r.PluginReports() {
			sb.WriteString(report)
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "min..max=(%s...%s)\n", FormatDuration(r.Histogram.Min), FormatDuration(r.Histogram.Max))
		if _, err := io.WriteString(t.out, sb.String()); err != nil {
			return err
		}
	}
	return nil
}
