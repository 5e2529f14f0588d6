// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package plugins provides the built-in bench plugins.
//
// Each plugin implements bench.Plugin. Plugins are stateful between
// BeforeRun and AfterRun, so one instance must not be shared by suites
// running concurrently.
package plugins

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gusanthiago/bench-node/services/bench"
)

// ErrUnknownPlugin indicates a plugin name that Parse does not know.
var ErrUnknownPlugin = errors.New("unknown plugin")

var constructors = map[string]func(arg string) (bench.Plugin, error){
	"disable-gc": func(string) (bench.Plugin, error) { return NewDisableGC(), nil },
	"memory":     func(string) (bench.Plugin, error) { return NewMemory(), nil },
	"cpu-affinity": func(arg string) (bench.Plugin, error) {
		if arg == "" {
			return NewCPUAffinity(0), nil
		}
		cpu, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("cpu-affinity: invalid cpu %q: %w", arg, err)
		}
		return NewCPUAffinity(cpu), nil
	},
}

// Names returns the names Parse accepts, sorted.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse builds plugins from specs of the form "name" or "name=arg",
// e.g. "memory" or "cpu-affinity=2". Order is preserved.
//
// Outputs:
//   - []bench.Plugin: The plugins in spec order.
//   - error: Wraps ErrUnknownPlugin, or an argument error.
func Parse(specs []string) ([]bench.Plugin, error) {
	out := make([]bench.Plugin, 0, len(specs))
	for _, spec := range specs {
		name, arg, _ := strings.Cut(strings.TrimSpace(spec), "=")
		ctor, ok := constructors[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownPlugin, name, strings.Join(Names(), ", "))
		}
		p, err := ctor(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
