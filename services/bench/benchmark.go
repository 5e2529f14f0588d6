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
	"time"
)

// -----------------------------------------------------------------------------
// Benchmark
// -----------------------------------------------------------------------------

// Func is the function under test.
//
// It may block (I/O, sleeps, channel waits); the engine waits for it to
// return and the blocked time is part of the measured latency. A non-nil
// error aborts the benchmark with a BenchmarkExecutionError.
type Func func(ctx context.Context) error

// Benchmark is one named unit of work.
//
// Thread Safety: Immutable after creation by Suite.Add.
type Benchmark struct {
	name      string
	fn        Func
	plugins   []Plugin
	ownPlugin bool
	overrides []func(*Config)
}

// BenchmarkOption configures a single benchmark.
type BenchmarkOption func(*Benchmark)

// NewBenchmark creates a benchmark outside of a Suite, e.g. to call
// Engine.Measure directly.
//
// Inputs:
//   - name: Benchmark name. Must not be empty.
//   - fn: The function under test. Must not be nil.
//   - opts: Optional per-benchmark overrides.
//
// Outputs:
//   - *Benchmark: The benchmark.
//   - error: ErrEmptyName or ErrNilFunc.
func NewBenchmark(name string, fn Func, opts ...BenchmarkOption) (*Benchmark, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if fn == nil {
		return nil, ErrNilFunc
	}
	b := &Benchmark{name: name, fn: fn}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Name returns the benchmark name.
func (b *Benchmark) Name() string { return b.name }

// Plugins returns the benchmark-level plugins and whether they were set.
// When not set, the suite plugins apply.
func (b *Benchmark) Plugins() ([]Plugin, bool) {
	out := make([]Plugin, len(b.plugins))
	copy(out, b.plugins)
	return out, b.ownPlugin
}

// config applies the benchmark overrides to base.
func (b *Benchmark) config(base Config) Config {
	cfg := base
	for _, o := range b.overrides {
		o(&cfg)
	}
	return cfg
}

// resolvePlugins returns the plugins that apply to b.
func (b *Benchmark) resolvePlugins(suite []Plugin) []Plugin {
	if b.ownPlugin {
		return b.plugins
	}
	return suite
}

// WithPlugins replaces the suite plugins for this benchmark. Passing no
// plugins runs the benchmark with none.
func WithPlugins(plugins ...Plugin) BenchmarkOption {
	return func(b *Benchmark) {
		b.plugins = append([]Plugin(nil), plugins...)
		b.ownPlugin = true
	}
}

// WithMinSamples overrides Config.MinSamples. Non-positive values are ignored.
func WithMinSamples(n int) BenchmarkOption {
	return func(b *Benchmark) {
		if n > 0 {
			b.overrides = append(b.overrides, func(c *Config) { c.MinSamples = n })
		}
	}
}

// WithMinTime overrides Config.MinTime. Negative values are ignored.
func WithMinTime(d time.Duration) BenchmarkOption {
	return func(b *Benchmark) {
		if d >= 0 {
			b.overrides = append(b.overrides, func(c *Config) { c.MinTime = d })
		}
	}
}

// WithWarmupIterations overrides Config.WarmupIterations. Negative values
// are ignored.
func WithWarmupIterations(n int) BenchmarkOption {
	return func(b *Benchmark) {
		if n >= 0 {
			b.overrides = append(b.overrides, func(c *Config) { c.WarmupIterations = n })
		}
	}
}

// Simple adapts a plain function to Func.
func Simple(fn func()) Func {
	if fn == nil {
		return nil
	}
	return func(context.Context) error {
		fn()
		return nil
	}
}
