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
	"fmt"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/gusanthiago/bench-node/services/bench"
)

// Memory reports heap growth and collector activity across the timed runs.
//
// Description:
//
//	Reads runtime.MemStats in BeforeRun and AfterRun. The report has the
//	form "heap-delta=1.2 MB gc-cycles=3". ReadMemStats stops the world,
//	so it is only called outside the timed region.
//
// Thread Safety: Not safe for concurrent use.
type Memory struct {
	before runtime.MemStats

	// HeapDelta is the HeapAlloc difference of the last run in bytes.
	HeapDelta int64

	// GCCycles is the number of collections during the last run.
	GCCycles uint32
}

// NewMemory creates the plugin.
func NewMemory() *Memory {
	return &Memory{}
}

// Name implements bench.Plugin.
func (p *Memory) Name() string { return "memory" }

// BeforeRun snapshots the heap statistics.
func (p *Memory) BeforeRun(context.Context, *bench.Benchmark) bench.PluginDecision {
	runtime.ReadMemStats(&p.before)
	return bench.Enabled()
}

// AfterRun computes the heap delta and GC cycle count.
func (p *Memory) AfterRun(context.Context, *bench.Benchmark) (bench.PluginOutcome, error) {
	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	p.HeapDelta = int64(after.HeapAlloc) - int64(p.before.HeapAlloc)
	p.GCCycles = after.NumGC - p.before.NumGC

	return bench.PluginOutcome{
		Name:   p.Name(),
		Result: bench.PluginEnabled,
		Report: fmt.Sprintf("heap-delta=%s gc-cycles=%d", signedBytes(p.HeapDelta), p.GCCycles),
	}, nil
}

func signedBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.Bytes(uint64(-n))
	}
	return humanize.Bytes(uint64(n))
}
