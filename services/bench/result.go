// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package bench

import (
	"time"
)

// -----------------------------------------------------------------------------
// Results
// -----------------------------------------------------------------------------

// Result is the reporter-facing summary of one benchmark measurement.
//
// Description:
//
//	Produced only by Engine.Measure, from a non-empty histogram, so every
//	field a reporter reads is populated. OpsSec is Iterations divided by
//	TotalElapsed in seconds; with batching, Iterations exceeds RunsSampled.
//
// Thread Safety: Safe for concurrent read access after creation.
type Result struct {
	// Name is the benchmark name.
	Name string

	// OpsSec is the number of calls per second.
	OpsSec float64

	// Iterations is the number of timed calls.
	Iterations int64

	// RunsSampled is the number of histogram samples.
	RunsSampled int

	// TotalElapsed is the sum of all accepted timed intervals.
	TotalElapsed time.Duration

	// Histogram holds the sample statistics in nanoseconds per call.
	Histogram Summary

	// Samples holds the raw per-call samples in insertion order.
	Samples []float64

	// Plugins holds one outcome per applicable plugin, in declaration order.
	Plugins []PluginOutcome
}

// PluginReports returns the non-empty plugin reports in order.
func (r *Result) PluginReports() []string {
	var out []string
	for _, p := range r.Plugins {
		if p.Report != "" {
			out = append(out, p.Report)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// Reporters
// -----------------------------------------------------------------------------

// Reporter consumes the ordered results of a suite run.
//
// The suite calls Report exactly once, after every result exists.
type Reporter interface {
	Report(results []*Result) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(results []*Result) error

// Report calls f(results).
func (f ReporterFunc) Report(results []*Result) error {
	return f(results)
}
