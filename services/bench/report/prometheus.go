// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gusanthiago/bench-node/services/bench"
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus publishes the results as gauges labelled by benchmark name
// and position.
//
// Description:
//
//	Exposes bench_ops_per_second, bench_iterations, bench_samples,
//	bench_min_seconds and bench_max_seconds. The index label is the
//	result's position in the report, so benchmarks sharing a name keep
//	separate series. Each Report overwrites the series it sees. The CLI dumps the registry with
//	prometheus.WriteToTextfile after a run.
type Prometheus struct {
	opsPerSecond *prometheus.GaugeVec
	iterations   *prometheus.GaugeVec
	samples      *prometheus.GaugeVec
	minSeconds   *prometheus.GaugeVec
	maxSeconds   *prometheus.GaugeVec
}

// NewPrometheus creates the gauges and registers them on reg.
//
// Outputs:
//   - *Prometheus: The reporter.
//   - error: Registration error, e.g. when the gauges already exist on reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	newGauge := func(name, help string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "bench",
			Name:      name,
			Help:      help,
		}, []string{"benchmark", "index"})
	}
	p := &Prometheus{
		opsPerSecond: newGauge("ops_per_second", "Measured operations per second."),
		iterations:   newGauge("iterations", "Timed calls of the benchmark function."),
		samples:      newGauge("samples", "Histogram samples collected."),
		minSeconds:   newGauge("min_seconds", "Fastest per-call sample in seconds."),
		maxSeconds:   newGauge("max_seconds", "Slowest per-call sample in seconds."),
	}
	for _, c := range []prometheus.Collector{p.opsPerSecond, p.iterations, p.samples, p.minSeconds, p.maxSeconds} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering bench gauges: %w", err)
		}
	}
	return p, nil
}

// Report implements bench.Reporter.
func (p *Prometheus) Report(results []*bench.Result) error {
	for i, r := range results {
		labels := []string{r.Name, strconv.Itoa(i)}
		p.opsPerSecond.WithLabelValues(labels...).Set(r.OpsSec)
		p.iterations.WithLabelValues(labels...).Set(float64(r.Iterations))
		p.samples.WithLabelValues(labels...).Set(float64(r.RunsSampled))
		p.minSeconds.WithLabelValues(labels...).Set(r.Histogram.Min / float64(time.Second))
		p.maxSeconds.WithLabelValues(labels...).Set(r.Histogram.Max / float64(time.Second))
	}
	return nil
}
