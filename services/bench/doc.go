// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package bench is a micro-benchmarking harness.
//
// # Overview
//
// A Suite runs user functions repeatedly, measures their per-call latency
// and hands one Result per benchmark to a Reporter. The Engine owns the
// sampling loop: how many calls to time per interval, when enough samples
// exist, and how plugins shape execution.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────────┐
//	│                              Suite                                 │
//	│   Add(name, fn) ... Run(ctx)                                       │
//	├───────────────────────────────────────────────────────────────────┤
//	│                                                                    │
//	│  ┌──────────────┐     ┌──────────────┐     ┌──────────────┐        │
//	│  │    Engine    │─────│  Histogram   │─────│   Reporter   │        │
//	│  │              │     │              │     │              │        │
//	│  │ • WarmingUp  │     │ • Record     │     │ • Chart      │        │
//	│  │ • Sampling   │     │ • Summarize  │     │ • HTML/JSON  │        │
//	│  │ • Done       │     │ • Percentile │     │ • CSV/Table  │        │
//	│  └──────────────┘     └──────────────┘     └──────────────┘        │
//	│         │                                                          │
//	│         ▼                                                          │
//	│  ┌──────────────┐                                                  │
//	│  │   Plugins    │  BeforeRun in order, AfterRun in reverse         │
//	│  └──────────────┘                                                  │
//	│                                                                    │
//	└───────────────────────────────────────────────────────────────────┘
//
// # Sampling
//
// Each sampling step times a batch of back-to-back calls. Intervals shorter
// than Config.MinInterval are too close to the clock resolution and are
// discarded while the batch grows. Accepted intervals record the per-call
// duration. Sampling stops once at least MinSamples samples exist and the
// accepted intervals add up to MinTime.
//
// # Usage
//
//	suite := bench.NewSuite(
//	    bench.WithReporter(report.NewChart(os.Stdout)),
//	    bench.WithSuitePlugins(plugins.NewMemory()),
//	)
//	suite.AddFunc("single with matcher", func() {
//	    pattern.ReplaceAllStringFunc(input, replacer)
//	})
//	results, err := suite.Run(ctx)
//
// # Thread Safety
//
// Benchmarks run one after another on the goroutine calling Run. The
// benchmark function may block. Blocked time counts as latency, and a
// function that never returns blocks the suite.
package bench
