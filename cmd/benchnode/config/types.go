// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"github.com/gusanthiago/bench-node/services/bench"
)

// File is the benchnode configuration file.
//
// Example:
//
//	engine:
//	  warmup_iterations: 10
//	  min_samples: 10
//	  min_time: 500ms
//	  min_interval: 10ms
//	  max_batch: 1000000000
//	reporter: chart
//	continue_on_error: false
//	plugins: [memory, disable-gc]
//	metrics_out: ""
//	telemetry: false
//	log:
//	  level: info
//	  json: false
type File struct {
	// Engine is the measurement engine configuration.
	Engine bench.Config `yaml:"engine"`

	// Reporter selects the output format.
	// Default: "chart"
	Reporter string `yaml:"reporter" validate:"oneof=chart text table html json csv"`

	// ContinueOnError skips failing benchmarks instead of aborting.
	ContinueOnError bool `yaml:"continue_on_error"`

	// Plugins lists plugin specs applied to every benchmark, e.g.
	// "memory" or "cpu-affinity=2".
	Plugins []string `yaml:"plugins"`

	// MetricsOut, when set, is the path of a Prometheus text file written
	// after the run.
	MetricsOut string `yaml:"metrics_out"`

	// Telemetry exports engine spans and metrics to stderr.
	Telemetry bool `yaml:"telemetry"`

	// Log configures the CLI logger.
	Log LogConfig `yaml:"log"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// JSON switches log output to JSON.
	JSON bool `yaml:"json"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	return File{
		Engine:   bench.DefaultConfig(),
		Reporter: "chart",
		Plugins:  []string{},
		Log: LogConfig{
			Level: "info",
		},
	}
}
