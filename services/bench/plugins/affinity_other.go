// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

//go:build !linux

package plugins

import (
	"context"
	"fmt"
	"runtime"

	"github.com/gusanthiago/bench-node/services/bench"
)

// CPUAffinity pins the measuring thread to one CPU. Only Linux supports
// it; elsewhere the plugin always reports unsupported.
type CPUAffinity struct {
	cpu int
}

// NewCPUAffinity creates a plugin pinning to cpu.
func NewCPUAffinity(cpu int) *CPUAffinity {
	return &CPUAffinity{cpu: cpu}
}

// Name implements bench.Plugin.
func (p *CPUAffinity) Name() string { return "cpu-affinity" }

// BeforeRun reports unsupported.
func (p *CPUAffinity) BeforeRun(context.Context, *bench.Benchmark) bench.PluginDecision {
	return bench.Unsupported(fmt.Sprintf("%v: cpu affinity on %s", bench.ErrPluginUnsupported, runtime.GOOS))
}

// AfterRun is never called for an unsupported plugin.
func (p *CPUAffinity) AfterRun(context.Context, *bench.Benchmark) (bench.PluginOutcome, error) {
	return bench.PluginOutcome{Name: p.Name(), Result: bench.PluginUnsupported}, nil
}
