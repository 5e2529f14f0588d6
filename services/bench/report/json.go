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
	"encoding/json"
	"fmt"
	"io"

	"github.com/gusanthiago/bench-node/services/bench"
)

// JSONRecord is one element of the JSON report.
type JSONRecord struct {
	Name        string                `json:"name"`
	OpsSec      float64               `json:"opsSec"`
	RunsSampled int                   `json:"runsSampled"`
	Iterations  int64                 `json:"iterations"`
	Min         string                `json:"min"`
	Max         string                `json:"max"`
	Plugins     []bench.PluginOutcome `json:"plugins"`
}

// JSON writes the results as one indented JSON array.
type JSON struct {
	out io.Writer
}

// NewJSON creates a JSON reporter writing to out.
func NewJSON(out io.Writer) *JSON {
	return &JSON{out: out}
}

// Report implements bench.Reporter.
func (j *JSON) Report(results []*bench.Result) error {
	records := make([]JSONRecord, 0, len(results))
	for _, r := range results {
		plugins := r.Plugins
		if plugins == nil {
			plugins = []bench.PluginOutcome{}
		}
		records = append(records, JSONRecord{
			Name:        r.Name,
			OpsSec:      r.OpsSec,
			RunsSampled: r.RunsSampled,
			Iterations:  r.Iterations,
			Min:         FormatDuration(r.Histogram.Min),
			Max:         FormatDuration(r.Histogram.Max),
			Plugins:     plugins,
		})
	}

	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding json report: %w", err)
	}
	return nil
}
