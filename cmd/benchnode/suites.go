// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gusanthiago/bench-node/services/bench"
)

// suiteDef is a built-in suite.
type suiteDef struct {
	description string
	register    func(s *bench.Suite)
}

const replaceSubject = "123123123123123123123123123123123123123123123123"

var (
	digitPattern = regexp.MustCompile(`[123]`)
	onePattern   = regexp.MustCompile(`1`)
	twoPattern   = regexp.MustCompile(`2`)
	threePattern = regexp.MustCompile(`3`)
	replacements = map[string]string{"1": "a", "2": "b", "3": "c"}

	// sink keeps results reachable so the compiler cannot drop the work.
	sink string
)

var suites = map[string]suiteDef{
	"replace": {
		description: "one regexp with a replacer func vs three ReplaceAll passes",
		register: func(s *bench.Suite) {
			s.AddFunc("single with matcher", func() {
				sink = digitPattern.ReplaceAllStringFunc(replaceSubject, func(m string) string {
					return replacements[m]
				})
			})
			s.AddFunc("multiple replaces", func() {
				r := onePattern.ReplaceAllString(replaceSubject, "a")
				r = twoPattern.ReplaceAllString(r, "b")
				sink = threePattern.ReplaceAllString(r, "c")
			})
		},
	},
	"concat": {
		description: "string concatenation strategies",
		register: func(s *bench.Suite) {
			parts := strings.Split(replaceSubject, "")
			s.AddFunc("plus operator", func() {
				var r string
				for _, p := range parts {
					r += p
				}
				sink = r
			})
			s.AddFunc("strings.Builder", func() {
				var sb strings.Builder
				for _, p := range parts {
					sb.WriteString(p)
				}
				sink = sb.String()
			})
			s.AddFunc("strings.Join", func() {
				sink = strings.Join(parts, "")
			})
		},
	},
	"sleep": {
		description: "blocking functions; blocked time counts as latency",
		register: func(s *bench.Suite) {
			s.Add("sleep 1ms", func(ctx context.Context) error {
				t := time.NewTimer(time.Millisecond)
				defer t.Stop()
				select {
				case <-t.C:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}, bench.WithMinSamples(5), bench.WithWarmupIterations(2))
		},
	},
}

func lookupSuite(name string) (suiteDef, bool) {
	def, ok := suites[name]
	return def, ok
}

func suiteNames() []string {
	names := make([]string, 0, len(suites))
	for name := range suites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
