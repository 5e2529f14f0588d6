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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gusanthiago/bench-node/pkg/logging"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable holding the config file path.
const EnvPath = "BENCHNODE_CONFIG"

var validate = validator.New()

// ErrInvalid indicates a configuration file that failed validation.
var ErrInvalid = errors.New("invalid configuration")

// Load reads the configuration at path. An empty path falls back to
// $BENCHNODE_CONFIG, and to Default() when that is unset too.
//
// Outputs:
//   - File: The configuration with defaults for every omitted field.
//   - error: Read, parse or validation error.
func Load(path string) (File, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read the config file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default() and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (File, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("failed to parse the config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return File{}, err
	}
	return cfg, nil
}

// Validate checks the file-level fields and the engine configuration.
func (f File) Validate() error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s=%v must satisfy %s=%s", ErrInvalid, fe.Namespace(), fe.Value(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := f.Engine.Validate(); err != nil {
		return fmt.Errorf("%w: engine: %v", ErrInvalid, err)
	}
	return nil
}

// Marshal encodes the configuration as YAML.
func (f File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Logger builds the CLI logger described by f.Log, writing to out.
func (f File) Logger(out io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(f.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{
		Level:   level,
		Service: "benchnode",
		JSON:    f.Log.JSON,
		Output:  out,
	}), nil
}
