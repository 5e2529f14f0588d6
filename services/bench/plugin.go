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
	"context"
)

// -----------------------------------------------------------------------------
// Plugins
// -----------------------------------------------------------------------------

// PluginStatus is the state a plugin reports for one benchmark run.
type PluginStatus string

const (
	// PluginEnabled means the plugin applied for the whole timed run.
	PluginEnabled PluginStatus = "enabled"

	// PluginDisabled means the plugin was configured off for this benchmark.
	PluginDisabled PluginStatus = "disabled"

	// PluginSkipped means the plugin chose not to apply, e.g. because the
	// environment already provides what it would do.
	PluginSkipped PluginStatus = "skipped"

	// PluginUnsupported means the environment cannot honour the plugin, or
	// its teardown failed.
	PluginUnsupported PluginStatus = "unsupported"
)

// PluginDecision is what a plugin answers when asked to activate.
type PluginDecision struct {
	// Status is PluginEnabled when the plugin activated. Any other status
	// records an outcome immediately and AfterRun is not called.
	Status PluginStatus

	// Report is used as the outcome report for non-enabled decisions.
	Report string
}

// Enabled is the decision of a plugin that activated.
func Enabled() PluginDecision {
	return PluginDecision{Status: PluginEnabled}
}

// Unsupported is the decision of a plugin the environment cannot honour.
func Unsupported(report string) PluginDecision {
	return PluginDecision{Status: PluginUnsupported, Report: report}
}

// Skipped is the decision of a plugin that chose not to apply.
func Skipped(report string) PluginDecision {
	return PluginDecision{Status: PluginSkipped, Report: report}
}

// PluginOutcome is the per-benchmark record a plugin leaves in a Result.
type PluginOutcome struct {
	// Name is the plugin identity.
	Name string `json:"name"`

	// Result is the plugin status for this run.
	Result PluginStatus `json:"result"`

	// Report is a human-readable fragment, e.g. "gc-disabled=true".
	Report string `json:"report"`
}

// Plugin shapes or annotates the execution of one benchmark.
//
// Description:
//
//	The engine calls BeforeRun on every plugin after warm-up and before
//	sampling, in declaration order. Plugins that answered PluginEnabled get
//	AfterRun once sampling ends, in reverse order, whether sampling
//	succeeded or not. A plugin failure never aborts the measurement.
//
//	Plugins are called from the goroutine that runs the benchmark function,
//	so goroutine-bound state (runtime.LockOSThread) set in BeforeRun holds
//	for every timed call.
type Plugin interface {
	// Name returns the plugin identity used in outcomes.
	Name() string

	// BeforeRun activates the plugin for benchmark b.
	BeforeRun(ctx context.Context, b *Benchmark) PluginDecision

	// AfterRun deactivates the plugin and reports what happened. A non-nil
	// error turns the outcome into PluginUnsupported.
	AfterRun(ctx context.Context, b *Benchmark) (PluginOutcome, error)
}

// Wrapper is an optional Plugin capability that wraps every timed call.
//
// Wrap is applied once per run, after BeforeRun, for enabled plugins only.
// The first declared plugin ends up outermost.
type Wrapper interface {
	Wrap(fn Func) Func
}
