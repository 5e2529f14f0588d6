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
	"time"

	"github.com/go-playground/validator/v10"
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

var configValidator = validator.New()

// Config holds the measurement engine configuration.
//
// Description:
//
//	Config controls warm-up, the batch sizing threshold and the two
//	sampling exit conditions. Sampling stops once at least MinSamples
//	samples were recorded AND at least MinTime of timed execution has
//	accumulated. Use DefaultConfig() and override fields as needed.
//
// Thread Safety: Safe for concurrent read access after initialization.
type Config struct {
	// WarmupIterations is the number of calls run before sampling.
	// Their timings only seed the initial batch size.
	// Default: 10
	WarmupIterations int `yaml:"warmup_iterations" json:"warmup_iterations" validate:"gte=0"`

	// MinSamples is the minimum number of histogram samples.
	// Default: 10
	MinSamples int `yaml:"min_samples" json:"min_samples" validate:"gte=1"`

	// MinTime is the minimum total timed execution per benchmark.
	// Default: 500ms
	MinTime time.Duration `yaml:"min_time" json:"min_time" validate:"gte=0"`

	// MinInterval is the shortest timed interval accepted as a sample.
	// Calls are batched until one batch takes at least this long.
	// Default: 10ms
	MinInterval time.Duration `yaml:"min_interval" json:"min_interval" validate:"gte=0"`

	// MaxBatch caps the number of calls per timed interval. At most 1e12.
	// Default: 1e9
	MaxBatch int64 `yaml:"max_batch" json:"max_batch" validate:"gte=1,lte=1000000000000"`
}

// DefaultConfig returns a configuration with default values.
//
// Outputs:
//   - Config: Configuration with default values.
//
// Example:
//
//	cfg := bench.DefaultConfig()
//	cfg.MinTime = 2 * time.Second
func DefaultConfig() Config {
	return Config{
		WarmupIterations: 10,
		MinSamples:       10,
		MinTime:          500 * time.Millisecond,
		MinInterval:      10 * time.Millisecond,
		MaxBatch:         1_000_000_000,
	}
}

// Validate checks that the configuration is usable.
//
// Outputs:
//   - error: Nil when valid. Otherwise wraps ErrInvalidConfig and names the
//     offending field and constraint.
//
// Example:
//
//	cfg := bench.DefaultConfig()
//	cfg.MinSamples = 0
//	err := cfg.Validate() // invalid benchmark configuration: MinSamples must satisfy gte=1
func (c Config) Validate() error {
	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s must satisfy %s=%s", ErrInvalidConfig, fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
}
