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
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"strconv"

	"github.com/gusanthiago/bench-node/services/bench"
)

// DefaultHTMLFile is the file the HTML reporter writes.
const DefaultHTMLFile = "result.html"

//go:embed templates/result.html.tmpl
var htmlSource string

var htmlTemplate = template.Must(template.New(DefaultHTMLFile).Parse(htmlSource))

// WriteFileFunc writes a report file. os.WriteFile satisfies it.
type WriteFileFunc func(name string, data []byte, perm os.FileMode) error

// HTMLOption configures an HTML reporter.
type HTMLOption func(*HTML)

// WithHTMLFile sets the output file name. Default: result.html.
func WithHTMLFile(name string) HTMLOption {
	return func(h *HTML) {
		if name != "" {
			h.file = name
		}
	}
}

// WithWriteFile replaces os.WriteFile, e.g. to capture the document in
// tests.
func WithWriteFile(fn WriteFileFunc) HTMLOption {
	return func(h *HTML) {
		if fn != nil {
			h.writeFile = fn
		}
	}
}

// HTML renders the results as a page with one animated circle per
// benchmark and writes it to a file.
//
// Each circle carries the class "circle-<slug>", where the slug is the
// benchmark name with whitespace replaced by dashes. After writing, a
// confirmation line is printed to out.
type HTML struct {
	out       io.Writer
	file      string
	writeFile WriteFileFunc
}

// NewHTML creates an HTML reporter printing its confirmation to out.
func NewHTML(out io.Writer, opts ...HTMLOption) *HTML {
	h := &HTML{
		out:       out,
		file:      DefaultHTMLFile,
		writeFile: os.WriteFile,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type htmlRow struct {
	Name    string
	Slug    string
	Ops     string
	Samples int
	Min     string
	Max     string
	Ratio   string
}

type htmlPage struct {
	Env  environment
	Rows []htmlRow
}

// Report implements bench.Reporter.
func (h *HTML) Report(results []*bench.Result) error {
	maxOps := 0.0
	for _, r := range results {
		maxOps = max(maxOps, r.OpsSec)
	}

	page := htmlPage{Env: currentEnvironment(), Rows: make([]htmlRow, 0, len(results))}
	for _, r := range results {
		ratio := 0.0
		if maxOps > 0 {
			ratio = r.OpsSec / maxOps
		}
		page.Rows = append(page.Rows, htmlRow{
			Name:    r.Name,
			Slug:    Slug(r.Name),
			Ops:     FormatOps(r.OpsSec),
			Samples: r.RunsSampled,
			Min:     FormatDuration(r.Histogram.Min),
			Max:     FormatDuration(r.Histogram.Max),
			Ratio:   strconv.FormatFloat(ratio, 'f', 4, 64),
		})
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, page); err != nil {
		return fmt.Errorf("rendering html report: %w", err)
	}
	if err := h.writeFile(h.file, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", h.file, err)
	}
	_, err := fmt.Fprintf(h.out, "HTML file has been generated: %s\n", h.file)
	return err
}
