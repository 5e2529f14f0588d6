// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report provides bench.Reporter implementations.
//
// # Reporters
//
//   - Chart: bar chart of ops/sec for terminals
//   - Text: one line per benchmark, min..max range
//   - Table: aligned table
//   - HTML: result.html page with one circle per benchmark
//   - JSON: array of result records on the writer
//   - CSV: header plus one row per benchmark, streamed as discrete writes
//   - Prometheus: gauges on a registerer
//
// Every reporter writes to an injected io.Writer so tests can capture the
// output without touching os.Stdout.
package report

import (
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
)

var durationUnits = []struct {
	suffix string
	scale  float64
}{
	{"ns", 1},
	{"us", 1e3},
	{"ms", 1e6},
	{"s", 1e9},
}

// FormatDuration formats a nanosecond duration with a unit chosen by
// magnitude, rounded to two decimals with trailing zeros dropped.
//
// Example:
//
//	FormatDuration(1322.2615873857162) // "1.32us"
//	FormatDuration(850)                // "850ns"
//	FormatDuration(2.5e9)              // "2.5s"
func FormatDuration(ns float64) string {
	if math.IsNaN(ns) || math.IsInf(ns, 0) {
		return fmt.Sprintf("%vns", ns)
	}
	i := 0
	for i < len(durationUnits)-1 && math.Abs(ns) >= durationUnits[i+1].scale {
		i++
	}
	v := round2(ns / durationUnits[i].scale)
	// 999.999us rounds to 1000us; move it to the next unit.
	if i < len(durationUnits)-1 && math.Abs(v) >= 1000 {
		i++
		v = round2(ns / durationUnits[i].scale)
	}
	return humanize.Commaf(v) + durationUnits[i].suffix
}

// FormatOps formats an ops/sec figure as a thousands-separated integer.
//
// Example:
//
//	FormatOps(749625.5652171721) // "749,626"
func FormatOps(ops float64) string {
	return humanize.Comma(int64(math.Round(ops)))
}

// Slug replaces runs of whitespace in name with a single dash.
//
// Example:
//
//	Slug("Multiple replaces") // "Multiple-replaces"
func Slug(name string) string {
	return strings.Join(strings.Fields(name), "-")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// environment describes the machine the results were measured on.
type environment struct {
	GoVersion string
	Platform  string
	CPUs      int
}

func currentEnvironment() environment {
	return environment{
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
	}
}
