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

	"github.com/gusanthiago/bench-node/services/bench"
)

// Multi fans results out to several reporters in order.
type Multi []bench.Reporter

// Report calls every reporter, even after one fails, and joins the errors.
func (m Multi) Report(results []*bench.Result) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Report(results); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
