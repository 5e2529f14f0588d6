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
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	require.NoError(t, p.Report(fixedResults()))

	assert.InDelta(t, 749625.5652171721, testutil.ToFloat64(p.opsPerSecond.WithLabelValues("single with matcher", "0")), 1e-9)
	assert.Equal(t, 11.0, testutil.ToFloat64(p.samples.WithLabelValues("Multiple replaces", "1")))
	assert.Equal(t, 374813.0, testutil.ToFloat64(p.iterations.WithLabelValues("single with matcher", "0")))
	assert.InDelta(t, 1.3222615873857162e-6, testutil.ToFloat64(p.minSeconds.WithLabelValues("single with matcher", "0")), 1e-15)
	assert.Equal(t, 2, testutil.CollectAndCount(p.maxSeconds))

	expected := `
# HELP bench_samples Histogram samples collected.
# TYPE bench_samples gauge
bench_samples{benchmark="Multiple replaces",index="1"} 11
bench_samples{benchmark="single with matcher",index="0"} 10
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "bench_samples"))
}

func TestPrometheus_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg)
	require.NoError(t, err)

	_, err = NewPrometheus(reg)
	assert.Error(t, err)
}

func TestPrometheus_DuplicateNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	results := fixedResults()
	results[1].Name = results[0].Name
	require.NoError(t, p.Report(results))

	assert.Equal(t, 2, testutil.CollectAndCount(p.samples))
	assert.Equal(t, 10.0, testutil.ToFloat64(p.samples.WithLabelValues(results[0].Name, "0")))
	assert.Equal(t, 11.0, testutil.ToFloat64(p.samples.WithLabelValues(results[0].Name, "1")))
}
