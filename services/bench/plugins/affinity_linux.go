// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

//go:build linux

package plugins

import (
	"context"
	"fmt"
	"runtime"

	"github.com/gusanthiago/bench-node/services/bench"
	"golang.org/x/sys/unix"
)

// CPUAffinity pins the measuring thread to one CPU for the timed runs.
//
// Description:
//
//	Locks the benchmark goroutine to its OS thread and restricts that
//	thread to CPU with sched_setaffinity. Goroutines started by the
//	benchmark function are not pinned. The previous mask is restored and
//	the thread unlocked on teardown.
//
// Thread Safety: Not safe for concurrent use.
type CPUAffinity struct {
	cpu      int
	previous unix.CPUSet
}

// NewCPUAffinity creates a plugin pinning to cpu.
func NewCPUAffinity(cpu int) *CPUAffinity {
	return &CPUAffinity{cpu: cpu}
}

// Name implements bench.Plugin.
func (p *CPUAffinity) Name() string { return "cpu-affinity" }

// BeforeRun pins the current thread.
func (p *CPUAffinity) BeforeRun(context.Context, *bench.Benchmark) bench.PluginDecision {
	if p.cpu < 0 || p.cpu >= runtime.NumCPU() {
		return bench.Unsupported(fmt.Sprintf("%v: cpu %d out of range", bench.ErrPluginUnsupported, p.cpu))
	}

	runtime.LockOSThread()
	if err := unix.SchedGetaffinity(0, &p.previous); err != nil {
		runtime.UnlockOSThread()
		return bench.Unsupported(fmt.Sprintf("%v: reading affinity: %v", bench.ErrPluginUnsupported, err))
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(p.cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		runtime.UnlockOSThread()
		return bench.Unsupported(fmt.Sprintf("%v: setting affinity: %v", bench.ErrPluginUnsupported, err))
	}
	return bench.Enabled()
}

// AfterRun restores the previous mask and unlocks the thread.
func (p *CPUAffinity) AfterRun(context.Context, *bench.Benchmark) (bench.PluginOutcome, error) {
	err := unix.SchedSetaffinity(0, &p.previous)
	runtime.UnlockOSThread()
	if err != nil {
		return bench.PluginOutcome{}, fmt.Errorf("restoring cpu affinity: %w", err)
	}
	return bench.PluginOutcome{
		Name:   p.Name(),
		Result: bench.PluginEnabled,
		Report: fmt.Sprintf("cpu-affinity=%d", p.cpu),
	}, nil
}
