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
	"math"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// fixedCost returns a function that advances clock by step per call and
// counts its calls.
func fixedCost(clock *ManualClock, step time.Duration, calls *int) Func {
	return func(context.Context) error {
		*calls++
		clock.Advance(step)
		return nil
	}
}

func deterministicConfig() Config {
	return Config{
		WarmupIterations: 5,
		MinSamples:       5,
		MinTime:          100 * time.Microsecond,
		MinInterval:      10 * time.Microsecond,
		MaxBatch:         1000,
	}
}

func newTestEngine(t *testing.T, cfg Config, clock Clock, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{WithEngineClock(clock)}, opts...)
	e, err := NewEngine(cfg, opts...)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return e
}

func TestNewEngine(t *testing.T) {
	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxBatch = 0
		_, err := NewEngine(cfg)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("keeps config", func(t *testing.T) {
		e, err := NewEngine(DefaultConfig())
		if err != nil {
			t.Fatalf("NewEngine failed: %v", err)
		}
		if e.Config() != DefaultConfig() {
			t.Errorf("Config() = %+v, want defaults", e.Config())
		}
	})
}

func TestEngine_Measure_Deterministic(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	calls := 0
	b, err := NewBenchmark("fixed", fixedCost(clock, time.Microsecond, &calls))
	if err != nil {
		t.Fatalf("NewBenchmark failed: %v", err)
	}

	e := newTestEngine(t, deterministicConfig(), clock)
	result, err := e.Measure(context.Background(), b, nil)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}

	// Warm-up of 5 calls at 1µs seeds a batch of 10, so every interval is
	// exactly 10µs and MinTime needs 10 samples.
	if result.RunsSampled != 10 {
		t.Errorf("RunsSampled = %d, want 10", result.RunsSampled)
	}
	if result.Iterations != 100 {
		t.Errorf("Iterations = %d, want 100", result.Iterations)
	}
	if result.TotalElapsed != 100*time.Microsecond {
		t.Errorf("TotalElapsed = %v, want 100µs", result.TotalElapsed)
	}
	if math.Abs(result.OpsSec-1e6) > 1e-3 {
		t.Errorf("OpsSec = %v, want 1e6", result.OpsSec)
	}
	if result.Histogram.Min != 1000 || result.Histogram.Max != 1000 {
		t.Errorf("Min/Max = %v/%v, want 1000/1000", result.Histogram.Min, result.Histogram.Max)
	}
	if calls != 105 {
		t.Errorf("calls = %d, want 105 (5 warm-up + 100 timed)", calls)
	}
	if len(result.Samples) != result.RunsSampled {
		t.Errorf("len(Samples) = %d, want %d", len(result.Samples), result.RunsSampled)
	}
	if len(result.Plugins) != 0 {
		t.Errorf("Plugins = %v, want none", result.Plugins)
	}
}

func TestEngine_Measure_Idempotent(t *testing.T) {
	run := func() *Result {
		clock := NewManualClock(time.Unix(0, 0))
		calls := 0
		b, _ := NewBenchmark("fixed", fixedCost(clock, 3*time.Microsecond, &calls))
		e := newTestEngine(t, deterministicConfig(), clock)
		result, err := e.Measure(context.Background(), b, nil)
		if err != nil {
			t.Fatalf("Measure failed: %v", err)
		}
		return result
	}

	first, second := run(), run()
	if first.Iterations != second.Iterations {
		t.Errorf("Iterations differ: %d vs %d", first.Iterations, second.Iterations)
	}
	if first.RunsSampled != second.RunsSampled {
		t.Errorf("RunsSampled differ: %d vs %d", first.RunsSampled, second.RunsSampled)
	}
	if first.OpsSec != second.OpsSec {
		t.Errorf("OpsSec differ: %v vs %v", first.OpsSec, second.OpsSec)
	}
}

func TestEngine_Measure_OpsSecInvariant(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	step := []time.Duration{time.Microsecond, 7 * time.Microsecond, 2 * time.Microsecond}
	i := 0
	b, _ := NewBenchmark("jitter", func(context.Context) error {
		clock.Advance(step[i%len(step)])
		i++
		return nil
	})

	e := newTestEngine(t, deterministicConfig(), clock)
	result, err := e.Measure(context.Background(), b, nil)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}

	want := float64(result.Iterations) / result.TotalElapsed.Seconds()
	if result.OpsSec != want {
		t.Errorf("OpsSec = %v, want %v", result.OpsSec, want)
	}
	if result.Histogram.Min > result.Histogram.Max {
		t.Errorf("Min %v > Max %v", result.Histogram.Min, result.Histogram.Max)
	}
	if result.RunsSampled < deterministicConfig().MinSamples {
		t.Errorf("RunsSampled = %d, want >= %d", result.RunsSampled, deterministicConfig().MinSamples)
	}
	if result.TotalElapsed < deterministicConfig().MinTime {
		t.Errorf("TotalElapsed = %v, want >= %v", result.TotalElapsed, deterministicConfig().MinTime)
	}
}

func TestEngine_Measure_BatchGrowth(t *testing.T) {
	tests := []struct {
		name           string
		maxBatch       int64
		minSamples     int
		wantIterations int64
		wantCalls      int
	}{
		{
			// 1 call (1µs, discarded) then batches of 10.
			name:           "grows to min interval",
			maxBatch:       1000,
			minSamples:     3,
			wantIterations: 30,
			wantCalls:      31,
		},
		{
			// 1 call discarded, then capped batches of 4 accepted below MinInterval.
			name:           "capped by max batch",
			maxBatch:       4,
			minSamples:     2,
			wantIterations: 8,
			wantCalls:      9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewManualClock(time.Unix(0, 0))
			calls := 0
			b, _ := NewBenchmark(tt.name, fixedCost(clock, time.Microsecond, &calls))
			cfg := Config{
				WarmupIterations: 0,
				MinSamples:       tt.minSamples,
				MinTime:          0,
				MinInterval:      10 * time.Microsecond,
				MaxBatch:         tt.maxBatch,
			}

			result, err := newTestEngine(t, cfg, clock).Measure(context.Background(), b, nil)
			if err != nil {
				t.Fatalf("Measure failed: %v", err)
			}
			if result.Iterations != tt.wantIterations {
				t.Errorf("Iterations = %d, want %d", result.Iterations, tt.wantIterations)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if result.Histogram.Min != 1000 {
				t.Errorf("Min = %v, want 1000ns per call", result.Histogram.Min)
			}
		})
	}
}

func TestEngine_Measure_ClockStalled(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	calls := 0
	b, _ := NewBenchmark("frozen", fixedCost(clock, 0, &calls))
	cfg := Config{MinSamples: 1, MinInterval: time.Microsecond, MaxBatch: 100}

	_, err := newTestEngine(t, cfg, clock).Measure(context.Background(), b, nil)
	if !errors.Is(err, ErrClockStalled) {
		t.Fatalf("Expected ErrClockStalled, got %v", err)
	}
	// Batch grows 1 -> 10 -> 100 before giving up.
	if calls != 111 {
		t.Errorf("calls = %d, want 111", calls)
	}
}

func TestEngine_Measure_Errors(t *testing.T) {
	errBoom := errors.New("boom")

	t.Run("warm-up failure", func(t *testing.T) {
		clock := NewManualClock(time.Unix(0, 0))
		b, _ := NewBenchmark("failing", func(context.Context) error { return errBoom })

		_, err := newTestEngine(t, deterministicConfig(), clock).Measure(context.Background(), b, nil)
		var execErr *BenchmarkExecutionError
		if !errors.As(err, &execErr) {
			t.Fatalf("Expected *BenchmarkExecutionError, got %v", err)
		}
		if execErr.Phase != PhaseWarmup {
			t.Errorf("Phase = %s, want %s", execErr.Phase, PhaseWarmup)
		}
		if execErr.Name != "failing" {
			t.Errorf("Name = %q, want failing", execErr.Name)
		}
		if !errors.Is(err, errBoom) {
			t.Errorf("Expected cause errBoom, got %v", err)
		}
	})

	t.Run("sampling failure tears plugins down", func(t *testing.T) {
		clock := NewManualClock(time.Unix(0, 0))
		n := 0
		b, _ := NewBenchmark("late", func(context.Context) error {
			n++
			clock.Advance(time.Microsecond)
			if n > 20 {
				return errBoom
			}
			return nil
		})
		var log []string
		p := &recordingPlugin{name: "p", log: &log}

		_, err := newTestEngine(t, deterministicConfig(), clock).Measure(context.Background(), b, []Plugin{p})
		var execErr *BenchmarkExecutionError
		if !errors.As(err, &execErr) {
			t.Fatalf("Expected *BenchmarkExecutionError, got %v", err)
		}
		if execErr.Phase != PhaseSampling {
			t.Errorf("Phase = %s, want %s", execErr.Phase, PhaseSampling)
		}
		if len(log) != 2 || log[1] != "after:p" {
			t.Errorf("log = %v, want teardown after failure", log)
		}
	})

	t.Run("panic", func(t *testing.T) {
		clock := NewManualClock(time.Unix(0, 0))
		b, _ := NewBenchmark("panics", func(context.Context) error { panic("kaboom") })

		_, err := newTestEngine(t, deterministicConfig(), clock).Measure(context.Background(), b, nil)
		if !errors.Is(err, ErrPanic) {
			t.Fatalf("Expected ErrPanic, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		clock := NewManualClock(time.Unix(0, 0))
		calls := 0
		b, _ := NewBenchmark("cancelled", fixedCost(clock, time.Microsecond, &calls))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := newTestEngine(t, deterministicConfig(), clock).Measure(ctx, b, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Expected context.Canceled, got %v", err)
		}
		if result != nil {
			t.Errorf("Expected nil result, got %+v", result)
		}
	})

	t.Run("nil benchmark", func(t *testing.T) {
		if _, err := newTestEngine(t, deterministicConfig(), SystemClock()).Measure(context.Background(), nil, nil); err == nil {
			t.Error("Expected error for nil benchmark")
		}
	})

	t.Run("invalid override", func(t *testing.T) {
		clock := NewManualClock(time.Unix(0, 0))
		calls := 0
		b, _ := NewBenchmark("override", fixedCost(clock, time.Microsecond, &calls),
			func(b *Benchmark) {
				b.overrides = append(b.overrides, func(c *Config) { c.MinSamples = 0 })
			})
		_, err := newTestEngine(t, deterministicConfig(), clock).Measure(context.Background(), b, nil)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
		if calls != 0 {
			t.Errorf("calls = %d, want 0", calls)
		}
	})
}

func TestEngine_Measure_BenchmarkOverrides(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	calls := 0
	b, _ := NewBenchmark("override", fixedCost(clock, time.Microsecond, &calls),
		WithMinSamples(20),
		WithMinTime(0),
		WithWarmupIterations(0),
	)
	cfg := deterministicConfig()
	cfg.MinInterval = 0

	result, err := newTestEngine(t, cfg, clock).Measure(context.Background(), b, nil)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	if result.RunsSampled != 20 || result.Iterations != 20 {
		t.Errorf("RunsSampled/Iterations = %d/%d, want 20/20", result.RunsSampled, result.Iterations)
	}
	if calls != 20 {
		t.Errorf("calls = %d, want 20 (no warm-up)", calls)
	}
}

// -----------------------------------------------------------------------------
// Plugins
// -----------------------------------------------------------------------------

type recordingPlugin struct {
	name     string
	log      *[]string
	decision PluginDecision
	afterErr error
	wrap     bool
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) BeforeRun(context.Context, *Benchmark) PluginDecision {
	*p.log = append(*p.log, "before:"+p.name)
	if p.decision.Status == "" {
		return Enabled()
	}
	return p.decision
}

func (p *recordingPlugin) AfterRun(context.Context, *Benchmark) (PluginOutcome, error) {
	*p.log = append(*p.log, "after:"+p.name)
	if p.afterErr != nil {
		return PluginOutcome{}, p.afterErr
	}
	return PluginOutcome{Name: p.name, Result: PluginEnabled, Report: p.name + "=true"}, nil
}

// wrappingPlugin records the nesting of wrapped calls.
type wrappingPlugin struct {
	recordingPlugin
}

func (p *wrappingPlugin) Wrap(fn Func) Func {
	return func(ctx context.Context) error {
		*p.log = append(*p.log, "call:"+p.name)
		return fn(ctx)
	}
}

func TestEngine_Measure_PluginOrder(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	calls := 0
	b, _ := NewBenchmark("plugins", fixedCost(clock, time.Microsecond, &calls))

	var log []string
	plugins := []Plugin{
		&recordingPlugin{name: "a", log: &log},
		&recordingPlugin{name: "skip", log: &log, decision: Skipped("already there")},
		&recordingPlugin{name: "b", log: &log},
	}

	result, err := newTestEngine(t, deterministicConfig(), clock).Measure(context.Background(), b, plugins)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}

	wantLog := []string{"before:a", "before:skip", "before:b", "after:b", "after:a"}
	if len(log) != len(wantLog) {
		t.Fatalf("log = %v, want %v", log, wantLog)
	}
	for i := range wantLog {
		if log[i] != wantLog[i] {
			t.Errorf("log[%d] = %s, want %s", i, log[i], wantLog[i])
		}
	}

	wantOutcomes := []PluginOutcome{
		{Name: "a", Result: PluginEnabled, Report: "a=true"},
		{Name: "skip", Result: PluginSkipped, Report: "already there"},
		{Name: "b", Result: PluginEnabled, Report: "b=true"},
	}
	if len(result.Plugins) != len(wantOutcomes) {
		t.Fatalf("Plugins = %v, want %v", result.Plugins, wantOutcomes)
	}
	for i := range wantOutcomes {
		if result.Plugins[i] != wantOutcomes[i] {
			t.Errorf("Plugins[%d] = %+v, want %+v", i, result.Plugins[i], wantOutcomes[i])
		}
	}

	reports := result.PluginReports()
	if len(reports) != 3 || reports[0] != "a=true" {
		t.Errorf("PluginReports() = %v", reports)
	}
}

func TestEngine_Measure_PluginTeardownError(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	calls := 0
	b, _ := NewBenchmark("teardown", fixedCost(clock, time.Microsecond, &calls))

	var log []string
	p := &recordingPlugin{name: "broken", log: &log, afterErr: errors.New("restore failed")}

	result, err := newTestEngine(t, deterministicConfig(), clock).Measure(context.Background(), b, []Plugin{p})
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	got := result.Plugins[0]
	if got.Result != PluginUnsupported {
		t.Errorf("Result = %s, want %s", got.Result, PluginUnsupported)
	}
	if got.Report != "restore failed" {
		t.Errorf("Report = %q, want the error text", got.Report)
	}
	if got.Name != "broken" {
		t.Errorf("Name = %q, want broken", got.Name)
	}
}

func TestEngine_Measure_WrapperNesting(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	calls := 0
	b, _ := NewBenchmark("wrapped", fixedCost(clock, time.Microsecond, &calls))

	var log []string
	outer := &wrappingPlugin{recordingPlugin{name: "outer", log: &log}}
	inner := &wrappingPlugin{recordingPlugin{name: "inner", log: &log}}
	cfg := deterministicConfig()
	cfg.WarmupIterations = 0
	cfg.MinInterval = 0
	cfg.MinSamples = 1
	cfg.MinTime = 0

	if _, err := newTestEngine(t, cfg, clock).Measure(context.Background(), b, []Plugin{outer, inner}); err != nil {
		t.Fatalf("Measure failed: %v", err)
	}

	want := []string{"before:outer", "before:inner", "call:outer", "call:inner", "after:inner", "after:outer"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Errorf("log[%d] = %s, want %s", i, log[i], want[i])
		}
	}
}

// -----------------------------------------------------------------------------
// Telemetry
// -----------------------------------------------------------------------------

func TestEngine_Measure_Telemetry(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))

	clock := NewManualClock(time.Unix(0, 0))
	calls := 0
	b, _ := NewBenchmark("traced", fixedCost(clock, time.Microsecond, &calls))

	e := newTestEngine(t, deterministicConfig(), clock,
		WithTracerProvider(tp),
		WithMeterProvider(mp),
	)
	if _, err := e.Measure(context.Background(), b, nil); err != nil {
		t.Fatalf("Measure failed: %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "bench.Engine.Measure" {
		t.Errorf("span name = %s", spans[0].Name())
	}
	if len(spans[0].Events()) != 2 {
		t.Errorf("Expected 2 phase events, got %d", len(spans[0].Events()))
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	var iterations int64 = -1
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "bench_iterations_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) != 1 {
				t.Fatalf("unexpected iterations data: %#v", m.Data)
			}
			iterations = sum.DataPoints[0].Value
		}
	}
	if iterations != 100 {
		t.Errorf("bench_iterations_total = %d, want 100", iterations)
	}
}

func TestGrowBatch(t *testing.T) {
	cfg := Config{MinInterval: 10 * time.Millisecond, MaxBatch: 1000}
	tests := []struct {
		name     string
		batch    int64
		interval time.Duration
		want     int64
	}{
		{"zero interval scales by ten", 5, 0, 50},
		{"scales to min interval", 10, time.Millisecond, 100},
		{"at least doubles", 10, 9 * time.Millisecond, 20},
		{"clamped", 500, time.Millisecond, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := growBatch(tt.batch, tt.interval, cfg); got != tt.want {
				t.Errorf("growBatch(%d, %v) = %d, want %d", tt.batch, tt.interval, got, tt.want)
			}
		})
	}
}

func TestGrowBatch_Saturates(t *testing.T) {
	cfg := Config{MinInterval: 10 * time.Millisecond, MaxBatch: math.MaxInt64}

	if got := growBatch(math.MaxInt64/2, 0, cfg); got != math.MaxInt64 {
		t.Errorf("growBatch near MaxInt64/2 = %d, want MaxInt64", got)
	}
	if got := growBatch(math.MaxInt64, time.Nanosecond, cfg); got != math.MaxInt64 {
		t.Errorf("growBatch at MaxInt64 = %d, want MaxInt64", got)
	}
	if got := initialBatch(time.Nanosecond, math.MaxInt32, cfg); got <= 0 {
		t.Errorf("initialBatch tiny per-call = %d, want positive", got)
	}
}

func TestInitialBatch(t *testing.T) {
	cfg := Config{MinInterval: 10 * time.Millisecond, MaxBatch: 1000}
	if got := initialBatch(10*time.Microsecond, 10, cfg); got != 1000 {
		t.Errorf("initialBatch fast = %d, want 1000 (clamped)", got)
	}
	if got := initialBatch(50*time.Millisecond, 10, cfg); got != 2 {
		t.Errorf("initialBatch 5ms/call = %d, want 2", got)
	}
	if got := initialBatch(0, 10, cfg); got != 1 {
		t.Errorf("initialBatch zero = %d, want 1", got)
	}
	if got := initialBatch(time.Second, 1, cfg); got != 1 {
		t.Errorf("initialBatch slow = %d, want 1", got)
	}
}
