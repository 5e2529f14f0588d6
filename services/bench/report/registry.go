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
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gusanthiago/bench-node/services/bench"
)

// ErrUnknownReporter indicates a reporter name that New does not know.
var ErrUnknownReporter = errors.New("unknown reporter")

// Kinds lists the reporter names accepted by New.
var Kinds = []string{"chart", "text", "table", "html", "json", "csv"}

// New returns the reporter registered under kind, writing to out.
func New(kind string, out io.Writer) (bench.Reporter, error) {
	switch strings.ToLower(kind) {
	case "chart":
		return NewChart(out), nil
	case "text":
		return NewText(out), nil
	case "table":
		return NewTable(out), nil
	case "html":
		return NewHTML(out), nil
	case "json":
		return NewJSON(out), nil
	case "csv":
		return NewCSV(out), nil
	default:
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownReporter, kind, strings.Join(Kinds, ", "))
	}
}
