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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gusanthiago/bench-node/pkg/logging"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// -----------------------------------------------------------------------------
// Suite Options
// -----------------------------------------------------------------------------

// SuiteOption configures a Suite.
type SuiteOption func(*Suite)

// WithReporter sets the reporter called once after all benchmarks ran.
// Without a reporter the suite only returns results.
func WithReporter(r Reporter) SuiteOption {
	return func(s *Suite) {
		s.reporter = r
	}
}

// WithSuitePlugins sets the plugins applied to every benchmark that does not
// declare its own.
func WithSuitePlugins(plugins ...Plugin) SuiteOption {
	return func(s *Suite) {
		s.plugins = append([]Plugin(nil), plugins...)
	}
}

// WithConfig sets the engine configuration. Default: DefaultConfig().
func WithConfig(cfg Config) SuiteOption {
	return func(s *Suite) {
		s.config = cfg
	}
}

// WithContinueOnError makes Run skip failing benchmarks instead of
// aborting. Failures are logged and available from Failures.
func WithContinueOnError(enabled bool) SuiteOption {
	return func(s *Suite) {
		s.continueOnError = enabled
	}
}

// WithLogger sets the suite logger. Nil values are ignored.
func WithLogger(logger *logging.Logger) SuiteOption {
	return func(s *Suite) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source used by the engine. Nil values are ignored.
func WithClock(clock Clock) SuiteOption {
	return func(s *Suite) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithSuiteTelemetry sets the tracer and meter providers handed to the
// engine. Nil values keep the otel globals.
func WithSuiteTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) SuiteOption {
	return func(s *Suite) {
		s.tracerProvider = tp
		s.meterProvider = mp
	}
}

// -----------------------------------------------------------------------------
// Suite
// -----------------------------------------------------------------------------

// Failure records a benchmark skipped under continue-on-error.
type Failure struct {
	Name string
	Err  error
}

// Suite is an ordered collection of benchmarks run one after another.
//
// Description:
//
//	Benchmarks run sequentially in registration order, on the calling
//	goroutine, so they never compete for CPU. After all of them ran the
//	reporter is called exactly once with the results in the same order.
//
//	Registration errors (empty name, nil function) are kept and returned
//	by Run, so Add can be chained.
//
// Thread Safety: all methods are safe to call from multiple goroutines.
// Run holds no lock while measuring or reporting, so benchmark functions
// and reporters may call back into the suite. Benchmarks added during a
// Run are measured by the next one.
type Suite struct {
	mu sync.Mutex

	benchmarks      []*Benchmark
	addErr          error
	reporter        Reporter
	plugins         []Plugin
	config          Config
	continueOnError bool
	logger          *logging.Logger
	clock           Clock
	tracerProvider  trace.TracerProvider
	meterProvider   metric.MeterProvider
	failures        []Failure
}

// NewSuite creates an empty suite.
//
// Example:
//
//	suite := bench.NewSuite(bench.WithReporter(report.NewChart(os.Stdout)))
//	suite.AddFunc("concat", func() { _ = a + b })
//	results, err := suite.Run(ctx)
func NewSuite(opts ...SuiteOption) *Suite {
	s := &Suite{
		config: DefaultConfig(),
		logger: logging.Discard(),
		clock:  SystemClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add registers a benchmark and returns the suite for chaining.
//
// Inputs:
//   - name: Benchmark name. Must not be empty.
//   - fn: The function under test. Must not be nil.
//   - opts: Per-benchmark plugins and configuration overrides.
//
// The first registration error is returned by Run.
func (s *Suite) Add(name string, fn Func, opts ...BenchmarkOption) *Suite {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := NewBenchmark(name, fn, opts...)
	if err != nil {
		if s.addErr == nil {
			s.addErr = &SuiteError{Op: "add", Err: fmt.Errorf("benchmark %q: %w", name, err)}
		}
		return s
	}
	s.benchmarks = append(s.benchmarks, b)
	return s
}

// AddFunc registers a benchmark whose function takes no context and
// cannot fail.
func (s *Suite) AddFunc(name string, fn func(), opts ...BenchmarkOption) *Suite {
	return s.Add(name, Simple(fn), opts...)
}

// Len returns the number of registered benchmarks.
func (s *Suite) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.benchmarks)
}

// Names returns the registered benchmark names in order.
func (s *Suite) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.benchmarks))
	for i, b := range s.benchmarks {
		names[i] = b.name
	}
	return names
}

// Failures returns the benchmarks skipped during the last Run.
func (s *Suite) Failures() []Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Failure, len(s.failures))
	copy(out, s.failures)
	return out
}

// Run measures every benchmark and reports the results.
//
// Description:
//
//	Benchmarks run in registration order. By default the first failure
//	aborts the run and the reporter is not called. With
//	WithContinueOnError the failing benchmark is skipped and the rest
//	still run. The reporter is called once with all results, even when
//	every benchmark was skipped.
//
// Inputs:
//   - ctx: Cancellation is checked between timed intervals.
//
// Outputs:
//   - []*Result: One result per successful benchmark, in order.
//   - error: A *SuiteError wrapping ErrNoBenchmarks or a registration
//     error, the benchmark error, or the reporter error.
func (s *Suite) Run(ctx context.Context) ([]*Result, error) {
	s.mu.Lock()
	addErr := s.addErr
	benchmarks := append([]*Benchmark(nil), s.benchmarks...)
	plugins := s.plugins
	reporter := s.reporter
	s.mu.Unlock()

	if addErr != nil {
		return nil, addErr
	}
	if len(benchmarks) == 0 {
		return nil, &SuiteError{Op: "run", Err: ErrNoBenchmarks}
	}

	engine, err := NewEngine(s.config,
		WithEngineClock(s.clock),
		WithEngineLogger(s.logger),
		WithTracerProvider(s.tracerProvider),
		WithMeterProvider(s.meterProvider),
	)
	if err != nil {
		return nil, &SuiteError{Op: "run", Err: err}
	}

	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID)
	logger.Info("suite started", "benchmarks", len(benchmarks))
	start := time.Now()

	var failures []Failure
	results := make([]*Result, 0, len(benchmarks))
	for _, b := range benchmarks {
		result, err := engine.Measure(ctx, b, b.resolvePlugins(plugins))
		if err != nil {
			if !s.continueOnError || isContextErr(err) {
				logger.Error("benchmark failed", "benchmark", b.name, "error", err.Error())
				s.setFailures(failures)
				return nil, err
			}
			logger.Warn("benchmark skipped", "benchmark", b.name, "error", err.Error())
			failures = append(failures, Failure{Name: b.name, Err: err})
			continue
		}
		logger.Info("benchmark measured",
			"benchmark", b.name,
			"ops_sec", result.OpsSec,
			"samples", result.RunsSampled,
		)
		results = append(results, result)
	}

	logger.Info("suite finished",
		"results", len(results),
		"failures", len(failures),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	s.setFailures(failures)

	if reporter != nil {
		if err := reporter.Report(results); err != nil {
			return results, &SuiteError{Op: "report", Err: err}
		}
	}
	return results, nil
}

// setFailures publishes the failures of a finished run.
func (s *Suite) setFailures(failures []Failure) {
	s.mu.Lock()
	s.failures = failures
	s.mu.Unlock()
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
