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
	"math"
	"time"

	"github.com/gusanthiago/bench-node/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "bench.engine"
	meterName  = "bench.engine"
)

// -----------------------------------------------------------------------------
// Engine Options
// -----------------------------------------------------------------------------

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the engine logger. Nil values are ignored.
func WithEngineLogger(logger *logging.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEngineClock sets the time source. Nil values are ignored.
func WithEngineClock(clock Clock) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Default: otel.GetTracerProvider().
func WithTracerProvider(tp trace.TracerProvider) EngineOption {
	return func(e *Engine) {
		if tp != nil {
			e.tracerProvider = tp
		}
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider.
// Default: otel.GetMeterProvider().
func WithMeterProvider(mp metric.MeterProvider) EngineOption {
	return func(e *Engine) {
		if mp != nil {
			e.meterProvider = mp
		}
	}
}

// -----------------------------------------------------------------------------
// Engine
// -----------------------------------------------------------------------------

// Engine produces one Result per Benchmark.
//
// Description:
//
//	Measure drives a benchmark through WarmingUp -> Sampling -> Done.
//	Warm-up calls are untimed for the result and only seed the batch size.
//	Plugins are activated after warm-up and torn down in reverse order
//	after sampling. Sampling stops when both the sample count and the
//	timed-elapsed budget are met.
//
// Thread Safety: Measure must not be called concurrently. Concurrent
// measurements contaminate each other's timings.
type Engine struct {
	config         Config
	clock          Clock
	logger         *logging.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	tracer         trace.Tracer
	iterations     metric.Int64Counter
	sampleDuration metric.Float64Histogram
	measurements   metric.Int64Counter
}

// NewEngine creates an engine with the given configuration.
//
// Inputs:
//   - config: Engine configuration. Must pass Validate.
//   - opts: Optional logger, clock and telemetry providers.
//
// Outputs:
//   - *Engine: The engine. Nil on error.
//   - error: Wraps ErrInvalidConfig, or an instrument creation error.
//
// Example:
//
//	engine, err := bench.NewEngine(bench.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	result, err := engine.Measure(ctx, b, nil)
func NewEngine(config Config, opts ...EngineOption) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		config:         config,
		clock:          SystemClock(),
		logger:         logging.Discard(),
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.tracer = e.tracerProvider.Tracer(tracerName)
	meter := e.meterProvider.Meter(meterName)

	var err error
	e.iterations, err = meter.Int64Counter(
		"bench_iterations_total",
		metric.WithDescription("Timed benchmark function calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating iterations counter: %w", err)
	}
	e.sampleDuration, err = meter.Float64Histogram(
		"bench_sample_duration_seconds",
		metric.WithDescription("Per-call duration of accepted samples"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sample histogram: %w", err)
	}
	e.measurements, err = meter.Int64Counter(
		"bench_measurements_total",
		metric.WithDescription("Benchmark measurements by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating measurements counter: %w", err)
	}

	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Measure runs one benchmark and reduces its samples into a Result.
//
// Description:
//
//	Runs warm-up, activates plugins, samples until the exit predicate
//	holds, deactivates plugins and builds the Result. Benchmark-level
//	overrides (WithMinSamples, ...) are applied on top of the engine
//	configuration.
//
// Inputs:
//   - ctx: Context checked between timed intervals. Must not be nil.
//   - b: The benchmark. Must not be nil.
//   - plugins: The plugins that apply to b, in declaration order.
//
// Outputs:
//   - *Result: The measurement. Nil on error.
//   - error: *BenchmarkExecutionError when the function fails, a wrapped
//     ErrInvalidConfig for bad overrides, or the context error.
//
// Limitations:
//   - No timeout is imposed on a single call. A function that never
//     returns blocks Measure forever.
func (e *Engine) Measure(ctx context.Context, b *Benchmark, plugins []Plugin) (*Result, error) {
	if ctx == nil {
		return nil, errors.New("context must not be nil")
	}
	if b == nil {
		return nil, errors.New("benchmark must not be nil")
	}

	cfg := b.config(e.config)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("benchmark %q: %w", b.name, err)
	}

	ctx, span := e.tracer.Start(ctx, "bench.Engine.Measure",
		trace.WithAttributes(
			attribute.String("bench.name", b.name),
			attribute.Int("bench.min_samples", cfg.MinSamples),
			attribute.Int64("bench.min_time_ns", int64(cfg.MinTime)),
			attribute.Int("bench.plugins", len(plugins)),
		),
	)
	defer span.End()

	logger := e.logger.With("benchmark", b.name)
	nameAttr := metric.WithAttributes(attribute.String("benchmark", b.name))

	s := newSampler(b.name, b.fn, cfg, e.clock)
	if err := s.warmUp(ctx); err != nil {
		e.fail(ctx, span, b.name, err)
		return nil, err
	}
	span.AddEvent("phase", trace.WithAttributes(
		attribute.String("bench.phase", s.state.String()),
		attribute.Int64("bench.batch", s.batch),
	))
	logger.Debug("warm-up finished", "batch", s.batch)

	act := activate(ctx, b, plugins, logger)
	s.fn = act.wrap(b.fn)

	err := s.sample(ctx)
	act.deactivate(ctx, b, logger)
	if err != nil {
		e.fail(ctx, span, b.name, err)
		return nil, err
	}
	span.AddEvent("phase", trace.WithAttributes(
		attribute.String("bench.phase", s.state.String()),
		attribute.Int("bench.discarded_intervals", s.discarded),
	))

	result, err := s.result(act.outcomes)
	if err != nil {
		e.fail(ctx, span, b.name, err)
		return nil, err
	}

	e.iterations.Add(ctx, result.Iterations, nameAttr)
	for _, ns := range result.Samples {
		e.sampleDuration.Record(ctx, ns/float64(time.Second), nameAttr)
	}
	e.measurements.Add(ctx, 1, metric.WithAttributes(
		attribute.String("benchmark", b.name),
		attribute.String("status", "ok"),
	))

	span.SetAttributes(
		attribute.Int64("bench.result.iterations", result.Iterations),
		attribute.Int("bench.result.samples", result.RunsSampled),
		attribute.Float64("bench.result.ops_per_second", result.OpsSec),
	)
	span.SetStatus(codes.Ok, "benchmark measured")

	logger.Debug("sampling finished",
		"iterations", result.Iterations,
		"samples", result.RunsSampled,
		"discarded_intervals", s.discarded,
		"ops_sec", result.OpsSec,
	)
	return result, nil
}

// fail records a failed measurement on the span and the status counter.
func (e *Engine) fail(ctx context.Context, span trace.Span, name string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, "benchmark failed")
	e.measurements.Add(ctx, 1, metric.WithAttributes(
		attribute.String("benchmark", name),
		attribute.String("status", "error"),
	))
}

// -----------------------------------------------------------------------------
// Sampling State Machine
// -----------------------------------------------------------------------------

// phase is the sampler state.
type phase int

const (
	phaseWarmingUp phase = iota
	phaseSampling
	phaseDone
)

// String returns the phase name used in logs and span events.
func (p phase) String() string {
	switch p {
	case phaseWarmingUp:
		return "warming_up"
	case phaseSampling:
		return "sampling"
	case phaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// sampler holds the state of one measurement.
type sampler struct {
	name  string
	fn    Func
	cfg   Config
	clock Clock

	state      phase
	batch      int64
	hist       *Histogram
	iterations int64
	elapsed    time.Duration
	discarded  int
}

func newSampler(name string, fn Func, cfg Config, clock Clock) *sampler {
	return &sampler{
		name:  name,
		fn:    fn,
		cfg:   cfg,
		clock: clock,
		state: phaseWarmingUp,
		batch: 1,
		hist:  NewHistogram(cfg.MinSamples),
	}
}

// warmUp runs the warm-up calls and picks the initial batch size.
func (s *sampler) warmUp(ctx context.Context) error {
	if s.state != phaseWarmingUp {
		return fmt.Errorf("warm-up in state %s", s.state)
	}
	if s.cfg.WarmupIterations > 0 {
		start := s.clock.Now()
		if err := runBatch(ctx, s.fn, int64(s.cfg.WarmupIterations)); err != nil {
			return &BenchmarkExecutionError{Name: s.name, Phase: PhaseWarmup, Cause: err}
		}
		spent := s.clock.Now().Sub(start)
		s.batch = initialBatch(spent, s.cfg.WarmupIterations, s.cfg)
	}
	s.state = phaseSampling
	return nil
}

// sample steps until the exit predicate holds.
func (s *sampler) sample(ctx context.Context) error {
	for s.state == phaseSampling {
		if err := s.step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// step times one batch and either accepts it as a sample or grows the batch.
func (s *sampler) step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("benchmark %q interrupted: %w", s.name, err)
	}

	start := s.clock.Now()
	if err := runBatch(ctx, s.fn, s.batch); err != nil {
		return &BenchmarkExecutionError{Name: s.name, Phase: PhaseSampling, Cause: err}
	}
	interval := s.clock.Now().Sub(start)

	if interval <= 0 || interval < s.cfg.MinInterval {
		if s.batch < s.cfg.MaxBatch {
			s.batch = growBatch(s.batch, interval, s.cfg)
			s.discarded++
			return nil
		}
		if interval <= 0 {
			return fmt.Errorf("benchmark %q at batch %d: %w", s.name, s.batch, ErrClockStalled)
		}
	}

	s.hist.Record(float64(interval.Nanoseconds()) / float64(s.batch))
	s.iterations += s.batch
	s.elapsed += interval

	if s.done() {
		s.state = phaseDone
	}
	return nil
}

// done is the sampling exit predicate.
func (s *sampler) done() bool {
	return s.hist.Count() >= s.cfg.MinSamples && s.elapsed >= s.cfg.MinTime
}

// result reduces the sampler state into a Result.
func (s *sampler) result(outcomes []PluginOutcome) (*Result, error) {
	if s.state != phaseDone {
		return nil, fmt.Errorf("result requested in state %s", s.state)
	}
	summary, err := s.hist.Summarize()
	if err != nil {
		return nil, fmt.Errorf("summarizing %q: %w", s.name, err)
	}
	plugins := make([]PluginOutcome, len(outcomes))
	copy(plugins, outcomes)

	return &Result{
		Name:         s.name,
		OpsSec:       float64(s.iterations) / s.elapsed.Seconds(),
		Iterations:   s.iterations,
		RunsSampled:  summary.Count,
		TotalElapsed: s.elapsed,
		Histogram:    summary,
		Samples:      s.hist.Samples(),
		Plugins:      plugins,
	}, nil
}

// runBatch calls fn n times, turning a panic into an ErrPanic error.
func runBatch(ctx context.Context, fn Func, n int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	for i := int64(0); i < n; i++ {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// initialBatch sizes the first batch so one interval lasts about
// MinInterval, from the warm-up cost of calls calls.
func initialBatch(spent time.Duration, calls int, cfg Config) int64 {
	if cfg.MinInterval <= 0 || spent <= 0 || calls <= 0 {
		return 1
	}
	perCall := float64(spent) / float64(calls)
	return saturateBatch(math.Ceil(float64(cfg.MinInterval)/perCall), cfg.MaxBatch)
}

// growBatch grows a batch whose interval came out too short. It scales by
// MinInterval/interval, at least doubling, and by 10 when the interval was
// zero. The result saturates at MaxBatch instead of overflowing.
func growBatch(batch int64, interval time.Duration, cfg Config) int64 {
	factor := 10.0
	if interval > 0 && cfg.MinInterval > 0 {
		factor = max(2, float64(cfg.MinInterval)/float64(interval))
	}
	return saturateBatch(math.Ceil(float64(batch)*factor), cfg.MaxBatch)
}

// saturateBatch converts a float batch size, clamping before the int64
// conversion so huge values cannot wrap.
func saturateBatch(n float64, max int64) int64 {
	if n >= float64(max) {
		return max
	}
	return clampBatch(int64(n), max)
}

func clampBatch(n, max int64) int64 {
	switch {
	case n < 1:
		return 1
	case n > max:
		return max
	default:
		return n
	}
}

// -----------------------------------------------------------------------------
// Plugin Activation
// -----------------------------------------------------------------------------

// activation tracks the plugins of one measurement.
type activation struct {
	plugins  []Plugin
	outcomes []PluginOutcome
	active   []int
}

// activate calls BeforeRun on every plugin in declaration order.
func activate(ctx context.Context, b *Benchmark, plugins []Plugin, logger *logging.Logger) *activation {
	a := &activation{
		plugins:  plugins,
		outcomes: make([]PluginOutcome, len(plugins)),
	}
	for i, p := range plugins {
		d := safeBeforeRun(ctx, b, p)
		if d.Status == PluginEnabled {
			a.active = append(a.active, i)
			continue
		}
		a.outcomes[i] = PluginOutcome{Name: p.Name(), Result: d.Status, Report: d.Report}
		logger.Debug("plugin not active",
			"plugin", p.Name(),
			"status", string(d.Status),
			"report", d.Report,
		)
	}
	return a
}

// wrap applies Wrapper plugins so the first declared one is outermost.
func (a *activation) wrap(fn Func) Func {
	for j := len(a.active) - 1; j >= 0; j-- {
		if w, ok := a.plugins[a.active[j]].(Wrapper); ok {
			fn = w.Wrap(fn)
		}
	}
	return fn
}

// deactivate calls AfterRun on the active plugins in reverse order.
func (a *activation) deactivate(ctx context.Context, b *Benchmark, logger *logging.Logger) {
	for j := len(a.active) - 1; j >= 0; j-- {
		i := a.active[j]
		p := a.plugins[i]
		out, err := safeAfterRun(ctx, b, p)
		if err != nil {
			logger.Debug("plugin teardown failed", "plugin", p.Name(), "error", err.Error())
			out = PluginOutcome{Name: p.Name(), Result: PluginUnsupported, Report: err.Error()}
		}
		if out.Name == "" {
			out.Name = p.Name()
		}
		if out.Result == "" {
			out.Result = PluginEnabled
		}
		a.outcomes[i] = out
	}
}

func safeBeforeRun(ctx context.Context, b *Benchmark, p Plugin) (d PluginDecision) {
	defer func() {
		if r := recover(); r != nil {
			d = Unsupported(fmt.Sprintf("%v: %v", ErrPluginUnsupported, r))
		}
	}()
	return p.BeforeRun(ctx, b)
}

func safeAfterRun(ctx context.Context, b *Benchmark, p Plugin) (out PluginOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: teardown panicked: %v", ErrPluginUnsupported, r)
		}
	}()
	return p.AfterRun(ctx, b)
}
