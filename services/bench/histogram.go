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
	"fmt"

	"github.com/montanaflynn/stats"
)

// -----------------------------------------------------------------------------
// Histogram
// -----------------------------------------------------------------------------

// Histogram accumulates per-call timing samples in nanoseconds.
//
// Description:
//
//	Samples are kept in insertion order so reporters can look at the raw
//	distribution. Summary statistics are recomputed on demand with a
//	single linear scan instead of being tracked incrementally.
//
// Thread Safety: Not safe for concurrent use. A histogram is owned by one
// Engine.Measure call, which has a single writer.
type Histogram struct {
	samples []float64
}

// NewHistogram creates an empty histogram with room for capacity samples.
func NewHistogram(capacity int) *Histogram {
	if capacity < 0 {
		capacity = 0
	}
	return &Histogram{samples: make([]float64, 0, capacity)}
}

// Record appends one per-call duration in nanoseconds.
func (h *Histogram) Record(durationNs float64) {
	h.samples = append(h.samples, durationNs)
}

// Count returns the number of recorded samples.
func (h *Histogram) Count() int {
	return len(h.samples)
}

// Samples returns a copy of the recorded samples in insertion order.
func (h *Histogram) Samples() []float64 {
	out := make([]float64, len(h.samples))
	copy(out, h.samples)
	return out
}

// Sum returns the sum of all samples in nanoseconds.
func (h *Histogram) Sum() float64 {
	var sum float64
	for _, s := range h.samples {
		sum += s
	}
	return sum
}

// Summary holds the statistics derived from a histogram.
//
// All durations are nanoseconds.
type Summary struct {
	// Min is the smallest sample.
	Min float64

	// Max is the largest sample.
	Max float64

	// Mean is the arithmetic mean of the samples.
	Mean float64

	// StdDev is the population standard deviation.
	StdDev float64

	// Count is the number of samples.
	Count int
}

// Summarize computes min, max, mean, standard deviation and count.
//
// Description:
//
//	Walks the samples once for min/max/sum. The standard deviation is
//	delegated to montanaflynn/stats.
//
// Outputs:
//   - Summary: The computed statistics.
//   - error: ErrEmptySample if nothing was recorded.
func (h *Histogram) Summarize() (Summary, error) {
	if len(h.samples) == 0 {
		return Summary{}, ErrEmptySample
	}

	lo, hi := h.samples[0], h.samples[0]
	var sum float64
	for _, s := range h.samples {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
		sum += s
	}

	stdDev, err := stats.StandardDeviationPopulation(stats.Float64Data(h.samples))
	if err != nil {
		return Summary{}, fmt.Errorf("computing standard deviation: %w", err)
	}

	return Summary{
		Min:    lo,
		Max:    hi,
		Mean:   sum / float64(len(h.samples)),
		StdDev: stdDev,
		Count:  len(h.samples),
	}, nil
}

// Percentile returns the p-th percentile (0 < p <= 100) of the samples.
//
// Outputs:
//   - float64: The percentile in nanoseconds.
//   - error: ErrEmptySample if nothing was recorded, or the library error
//     for an out-of-range p.
func (h *Histogram) Percentile(p float64) (float64, error) {
	if len(h.samples) == 0 {
		return 0, ErrEmptySample
	}
	v, err := stats.Percentile(stats.Float64Data(h.samples), p)
	if err != nil {
		return 0, fmt.Errorf("percentile %v: %w", p, err)
	}
	return v, nil
}
