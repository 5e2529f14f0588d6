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
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/gusanthiago/bench-node/pkg/ux"
	"github.com/gusanthiago/bench-node/services/bench"
)

const defaultBarWidth = 50

// ChartOption configures a Chart.
type ChartOption func(*Chart)

// WithBarWidth sets the width of the longest bar. Default: 50.
func WithBarWidth(width int) ChartOption {
	return func(c *Chart) {
		if width > 0 {
			c.width = width
		}
	}
}

// WithColor forces colour on or off. By default colour is used only when
// the writer is a terminal.
func WithColor(enabled bool) ChartOption {
	return func(c *Chart) {
		c.theme = ux.NewTheme(enabled)
	}
}

// Chart prints a bar chart of ops/sec.
//
// Description:
//
//	Bars are proportional to each result's ops/sec relative to the
//	fastest result in the batch. Output looks like:
//
//	  Go: go1.25.3
//	  Platform: linux/amd64
//	  CPU Cores: 8
//
//	  single with matcher | ██████████████████████████████ | 749,626 ops/sec | 10 samples
//	  multiple replaces   | █████████████████████████      | 634,285 ops/sec | 11 samples
type Chart struct {
	out   io.Writer
	width int
	theme ux.Theme
}

// NewChart creates a chart reporter writing to out.
func NewChart(out io.Writer, opts ...ChartOption) *Chart {
	c := &Chart{
		out:   out,
		width: defaultBarWidth,
		theme: ux.ThemeFor(out),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Report implements bench.Reporter.
func (c *Chart) Report(results []*bench.Result) error {
	env := currentEnvironment()
	var sb strings.Builder

	sb.WriteString(c.theme.Muted(fmt.Sprintf("Go: %s\nPlatform: %s\nCPU Cores: %d", env.GoVersion, env.Platform, env.CPUs)))
	sb.WriteString("\n\n")

	nameWidth, maxOps := 0, 0.0
	for _, r := range results {
		nameWidth = max(nameWidth, lipgloss.Width(r.Name))
		maxOps = math.Max(maxOps, r.OpsSec)
	}

	for _, r := range results {
		n := barLength(r.OpsSec, maxOps, c.width)
		bar := c.theme.Bar(ux.Blocks(n))
		// Pad by display width; %-*s counts bytes.
		fmt.Fprintf(&sb, "%s%s | %s%s | %s ops/sec | %d samples\n",
			r.Name, strings.Repeat(" ", nameWidth-lipgloss.Width(r.Name)),
			bar, strings.Repeat(" ", c.width-n),
			FormatOps(r.OpsSec),
			r.RunsSampled,
		)
	}

	_, err := io.WriteString(c.out, sb.String())
	return err
}

// barLength scales ops to width. Any positive figure gets at least one
// block.
func barLength(ops, maxOps float64, width int) int {
	if maxOps <= 0 || ops <= 0 {
		return 0
	}
	n := int(math.Round(ops / maxOps * float64(width)))
	return min(max(n, 1), width)
}
