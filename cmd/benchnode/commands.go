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
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gusanthiago/bench-node/cmd/benchnode/config"
	"github.com/gusanthiago/bench-node/pkg/ux"
	"github.com/gusanthiago/bench-node/services/bench"
	"github.com/gusanthiago/bench-node/services/bench/plugins"
	"github.com/gusanthiago/bench-node/services/bench/report"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	configPath      string
	reporter        string
	minTime         time.Duration
	minSamples      int
	continueOnError bool
	plugins         []string
	metricsOut      string
	telemetry       bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &runOptions{}

	rootCmd := &cobra.Command{
		Use:           "benchnode",
		Short:         "Micro-benchmark harness",
		Long:          `benchnode measures the latency of small functions with adaptive batching and reports ops/sec, sample counts and min/max per-call durations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file (default $"+config.EnvPath+")")

	runCmd := &cobra.Command{
		Use:   "run [suite]",
		Short: "Runs a built-in benchmark suite",
		Long:  `Runs one of the suites listed by "benchnode suites" and prints the results with the selected reporter.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runSuite(cmd.Context(), args[0], cfg, stdout, stderr)
		},
	}
	runCmd.Flags().StringVarP(&opts.reporter, "reporter", "r", "chart", "Reporter: "+strings.Join(report.Kinds, ", "))
	runCmd.Flags().DurationVar(&opts.minTime, "min-time", 0, "Minimum timed execution per benchmark")
	runCmd.Flags().IntVar(&opts.minSamples, "min-samples", 0, "Minimum histogram samples per benchmark")
	runCmd.Flags().BoolVar(&opts.continueOnError, "continue-on-error", false, "Skip failing benchmarks instead of aborting")
	runCmd.Flags().StringSliceVarP(&opts.plugins, "plugin", "p", nil, "Plugins: "+strings.Join(plugins.Names(), ", ")+" (repeatable, name=arg)")
	runCmd.Flags().StringVar(&opts.metricsOut, "metrics-out", "", "Write Prometheus gauges to this text file")
	runCmd.Flags().BoolVar(&opts.telemetry, "trace", false, "Export engine spans and metrics to stderr")

	suitesCmd := &cobra.Command{
		Use:   "suites",
		Short: "Lists the built-in suites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSuites(stdout)
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Prints the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = stdout.Write(data)
			return err
		},
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(suitesCmd)
	rootCmd.AddCommand(configCmd)
	return rootCmd
}

// resolveConfig loads the config file and applies the flags the user set.
func resolveConfig(cmd *cobra.Command, opts *runOptions) (config.File, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.File{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("reporter") {
		cfg.Reporter = opts.reporter
	}
	if flags.Changed("min-time") {
		cfg.Engine.MinTime = opts.minTime
	}
	if flags.Changed("min-samples") {
		cfg.Engine.MinSamples = opts.minSamples
	}
	if flags.Changed("continue-on-error") {
		cfg.ContinueOnError = opts.continueOnError
	}
	if flags.Changed("plugin") {
		cfg.Plugins = opts.plugins
	}
	if flags.Changed("metrics-out") {
		cfg.MetricsOut = opts.metricsOut
	}
	if flags.Changed("trace") {
		cfg.Telemetry = opts.telemetry
	}
	if err := cfg.Validate(); err != nil {
		return config.File{}, err
	}
	return cfg, nil
}

// runSuite builds and runs the named suite with the configured reporters.
func runSuite(ctx context.Context, name string, cfg config.File, stdout, stderr io.Writer) error {
	def, ok := lookupSuite(name)
	if !ok {
		return fmt.Errorf("unknown suite %q (known: %s)", name, strings.Join(suiteNames(), ", "))
	}

	logger, err := cfg.Logger(stderr)
	if err != nil {
		return err
	}

	reporter, err := report.New(cfg.Reporter, stdout)
	if err != nil {
		return err
	}
	reporters := report.Multi{reporter}

	var registry *prometheus.Registry
	if cfg.MetricsOut != "" {
		registry = prometheus.NewRegistry()
		prom, err := report.NewPrometheus(registry)
		if err != nil {
			return err
		}
		reporters = append(reporters, prom)
	}

	suitePlugins, err := plugins.Parse(cfg.Plugins)
	if err != nil {
		return err
	}

	opts := []bench.SuiteOption{
		bench.WithConfig(cfg.Engine),
		bench.WithReporter(reporters),
		bench.WithSuitePlugins(suitePlugins...),
		bench.WithContinueOnError(cfg.ContinueOnError),
		bench.WithLogger(logger),
	}

	if cfg.Telemetry {
		tel, err := newTelemetry(stderr)
		if err != nil {
			return err
		}
		defer func() {
			if err := tel.Shutdown(context.Background()); err != nil {
				logger.Warn("telemetry shutdown failed", "error", err.Error())
			}
		}()
		opts = append(opts, bench.WithSuiteTelemetry(tel.TracerProvider, tel.MeterProvider))
	}

	suite := bench.NewSuite(opts...)
	def.register(suite)

	if _, err := suite.Run(ctx); err != nil {
		return err
	}
	theme := ux.ThemeFor(stderr)
	for _, f := range suite.Failures() {
		fmt.Fprintf(stderr, "%s %s: %v\n", theme.Warning("skipped"), f.Name, f.Err)
	}

	if registry != nil {
		if err := prometheus.WriteToTextfile(cfg.MetricsOut, registry); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		logger.Info("metrics written", "path", cfg.MetricsOut)
	}
	return nil
}

func listSuites(out io.Writer) error {
	theme := ux.ThemeFor(out)
	for _, name := range suiteNames() {
		def, _ := lookupSuite(name)
		s := bench.NewSuite()
		def.register(s)
		if _, err := fmt.Fprintf(out, "%s %s\n", theme.Title(fmt.Sprintf("%-10s", name)), theme.Muted(def.description)); err != nil {
			return err
		}
		for _, b := range s.Names() {
			if _, err := fmt.Fprintf(out, "  - %s\n", b); err != nil {
				return err
			}
		}
	}
	return nil
}
