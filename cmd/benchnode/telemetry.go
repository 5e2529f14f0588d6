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
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

// telemetry holds the providers used with --trace.
type telemetry struct {
	TracerProvider *trace.TracerProvider
	MeterProvider  *metric.MeterProvider
}

// newTelemetry creates providers exporting spans and metrics to out.
// Spans are exported synchronously so they appear next to the log lines
// of the benchmark they belong to; metrics are flushed on Shutdown.
func newTelemetry(out io.Writer) (*telemetry, error) {
	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", "benchnode"),
	)

	spanExporter, err := stdouttrace.New(stdouttrace.WithWriter(out), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create span exporter: %w", err)
	}
	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(out), stdoutmetric.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	return &telemetry{
		TracerProvider: trace.NewTracerProvider(
			trace.WithSyncer(spanExporter),
			trace.WithResource(res),
		),
		MeterProvider: metric.NewMeterProvider(
			metric.WithReader(metric.NewPeriodicReader(metricExporter)),
			metric.WithResource(res),
		),
	}, nil
}

// Shutdown flushes and stops both providers.
func (t *telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.TracerProvider.Shutdown(ctx),
		t.MeterProvider.Shutdown(ctx),
	)
}
