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
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrEmptySample indicates that a histogram was summarized with no samples.
	// This is a programmer error: a Result is never built from an empty histogram.
	ErrEmptySample = errors.New("histogram has no samples")

	// ErrNoBenchmarks indicates that Run was called on a suite with nothing added.
	ErrNoBenchmarks = errors.New("no benchmarks registered")

	// ErrEmptyName indicates that a benchmark was added without a name.
	ErrEmptyName = errors.New("benchmark name must not be empty")

	// ErrNilFunc indicates that a benchmark was added without a function.
	ErrNilFunc = errors.New("benchmark function must not be nil")

	// ErrInvalidConfig indicates an invalid engine configuration.
	ErrInvalidConfig = errors.New("invalid benchmark configuration")

	// ErrPluginUnsupported indicates that a plugin cannot apply in this
	// environment. It is recorded as an outcome and never aborts a run.
	ErrPluginUnsupported = errors.New("plugin unsupported")

	// ErrPanic indicates that the benchmarked function panicked.
	ErrPanic = errors.New("benchmark function panicked")

	// ErrClockStalled indicates that timed intervals stay at zero even at the
	// maximum batch size, so no sample can ever be accepted.
	ErrClockStalled = errors.New("clock did not advance during a timed interval")
)

// Phase names the engine phase in which a benchmark function failed.
type Phase string

const (
	// PhaseWarmup is the warm-up phase; timings are discarded.
	PhaseWarmup Phase = "warmup"

	// PhaseSampling is the timed sampling phase.
	PhaseSampling Phase = "sampling"
)

// BenchmarkExecutionError reports that the function under test failed.
//
// Description:
//
//	Returned by Engine.Measure when the benchmark function returns an error
//	or panics. No Result is produced for that benchmark. The Suite decides,
//	using its continue-on-error policy, whether the remaining benchmarks run.
//
// Example:
//
//	var execErr *bench.BenchmarkExecutionError
//	if errors.As(err, &execErr) {
//	    fmt.Printf("%s failed during %s: %v\n", execErr.Name, execErr.Phase, execErr.Cause)
//	}
type BenchmarkExecutionError struct {
	// Name is the benchmark name.
	Name string

	// Phase is the phase in which the failure happened.
	Phase Phase

	// Cause is the error returned (or the panic recovered) from the function.
	Cause error
}

// Error implements error.
func (e *BenchmarkExecutionError) Error() string {
	return fmt.Sprintf("benchmark %q failed during %s: %v", e.Name, e.Phase, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *BenchmarkExecutionError) Unwrap() error {
	return e.Cause
}

// SuiteError reports a suite-level failure that is not tied to one
// benchmark: an empty suite, a registration error, or a reporter failure.
type SuiteError struct {
	// Op is the suite operation that failed ("add", "run", "report").
	Op string

	// Err is the underlying sentinel error.
	Err error
}

// Error implements error.
func (e *SuiteError) Error() string {
	return fmt.Sprintf("suite %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *SuiteError) Unwrap() error {
	return e.Err
}
