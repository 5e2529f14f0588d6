// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package plugins

import (
	"context"
	"runtime/debug"

	"github.com/gusanthiago/bench-node/services/bench"
)

// DisableGC turns the garbage collector off for the timed runs.
//
// Description:
//
//	Removes collector pauses from the measured latency, so the samples
//	show the cost of the function alone. Heap growth is unbounded while
//	active; do not use it on benchmarks that allocate heavily for long.
//	The previous GC percent is restored on teardown. No collection is
//	forced, so a Memory plugin torn down after this one reports only the
//	cycles that happened during the run.
//
// Thread Safety: Not safe for concurrent use. The GC setting is process
// global.
type DisableGC struct {
	previous int
}

// NewDisableGC creates the plugin.
func NewDisableGC() *DisableGC {
	return &DisableGC{}
}

// Name implements bench.Plugin.
func (p *DisableGC) Name() string { return "disable-gc" }

// BeforeRun disables the collector. It is skipped when the collector is
// already off (GOGC=off).
func (p *DisableGC) BeforeRun(context.Context, *bench.Benchmark) bench.PluginDecision {
	p.previous = debug.SetGCPercent(-1)
	if p.previous < 0 {
		return bench.Skipped("gc-disabled=already")
	}
	return bench.Enabled()
}

// AfterRun restores the collector.
func (p *DisableGC) AfterRun(context.Context, *bench.Benchmark) (bench.PluginOutcome, error) {
	debug.SetGCPercent(p.previous)
	return bench.PluginOutcome{
		Name:   p.Name(),
		Result: bench.PluginEnabled,
		Report: "gc-disabled=true",
	}, nil
}
