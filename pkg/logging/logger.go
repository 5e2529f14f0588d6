// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for bench-node components.
//
// The logger is a thin layer over log/slog that writes human-readable text
// (or JSON) to stderr by default and can additionally fan records out to an
// in-memory sink, which is how tests assert on what the measurement engine
// and the suite logged:
//
//	┌──────────────────────────────────────────────┐
//	│                    Logger                    │
//	│  ┌──────────────────┐   ┌─────────────────┐  │
//	│  │ Output (stderr)  │   │  MemorySink     │  │
//	│  │  text or JSON    │   │  (optional)     │  │
//	│  └──────────────────┘   └─────────────────┘  │
//	└──────────────────────────────────────────────┘
//
// # Basic Usage
//
//	logger := logging.Default()
//	logger.Info("benchmark finished", "benchmark", name, "ops_sec", opsSec)
//
// # Log Levels
//
//   - Debug: per-phase engine transitions, batch size changes
//   - Info: suite start/end, one line per completed benchmark
//   - Warn: benchmarks skipped under the continue-on-error policy
//   - Error: a run aborted
//
// # Output Discipline
//
// Reporters own stdout. Log output therefore goes to stderr unless Output
// is set explicitly, so piping `benchnode run --reporter json` into a JSON
// parser never sees log lines.
//
// # Thread Safety
//
// Logger is safe for concurrent use. The underlying slog.Logger is
// thread-safe and MemorySink guards its buffer with a mutex.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity levels.
//
// Levels follow the slog convention and are ordered by severity:
// Debug < Info < Warn < Error
type Level int

const (
	// LevelDebug is for engine internals such as phase transitions.
	LevelDebug Level = iota

	// LevelInfo is for normal operational messages.
	LevelInfo

	// LevelWarn is for recoverable problems, e.g. a skipped benchmark.
	LevelWarn

	// LevelError is for failures that abort an operation.
	LevelError
)

// String returns the human-readable name of the level.
//
// Returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// toSlogLevel converts our Level to slog.Level.
func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel converts a configuration string into a Level.
//
// Description:
//
//	Accepts the level names case-insensitively ("debug", "INFO", ...).
//	"warning" is accepted as an alias of "warn". The empty string maps
//	to LevelInfo so that an omitted config key keeps the default.
//
// Inputs:
//   - s: The level name.
//
// Outputs:
//   - Level: The parsed level.
//   - error: Non-nil if s names no known level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures the Logger behavior.
//
// A zero-value Config creates a logger that writes Info+ messages to
// stderr in text format.
type Config struct {
	// Level sets the minimum log level.
	// Default: LevelInfo
	Level Level

	// Service is attached to every record as the "service" attribute.
	// Default: "" (no service attribute)
	Service string

	// JSON switches the Output handler to JSON.
	// Default: false (text)
	JSON bool

	// Quiet disables the Output handler. Records still reach Sink.
	// Default: false
	Quiet bool

	// Output is the destination of formatted records.
	// Default: os.Stderr
	Output io.Writer

	// Sink optionally receives a copy of every enabled record.
	// Default: nil
	Sink *MemorySink
}

// =============================================================================
// Logger
// =============================================================================

// Logger provides structured logging over slog.
//
// Use With() to derive a logger that carries extra attributes, e.g. a
// suite run ID:
//
//	runLogger := logger.With("run_id", runID)
//	runLogger.Info("suite started", "benchmarks", n)
type Logger struct {
	slog   *slog.Logger
	config Config
}

// New creates a new Logger with the given configuration.
//
// Inputs:
//   - config: Logger configuration (see Config for options)
//
// Outputs:
//   - *Logger: Configured logger ready for use. Never nil.
//
// Example:
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelDebug,
//	    Service: "benchnode",
//	})
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{
		Level: config.Level.toSlogLevel(),
	}

	var handlers []slog.Handler
	if !config.Quiet {
		out := config.Output
		if out == nil {
			out = os.Stderr
		}
		if config.JSON {
			handlers = append(handlers, slog.NewJSONHandler(out, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(out, opts))
		}
	}
	if config.Sink != nil {
		handlers = append(handlers, &sinkHandler{sink: config.Sink, level: opts.Level})
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(io.Discard, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{
			slog.String("service", config.Service),
		})
	}

	return &Logger{
		slog:   slog.New(handler),
		config: config,
	}
}

// Default returns a logger writing Info+ text records to stderr with the
// "bench-node" service attribute.
func Default() *Logger {
	return New(Config{
		Level:   LevelInfo,
		Service: "bench-node",
	})
}

// Discard returns a logger that drops every record.
func Discard() *Logger {
	return New(Config{Quiet: true})
}

// Debug logs a message at Debug level.
//
// Example:
//
//	logger.Debug("phase transition", "from", "warming_up", "to", "sampling")
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs a message at Info level.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs a message at Warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs a message at Error level.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// With returns a new Logger with additional attributes.
//
// The parent logger is not modified.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
	}
}

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// =============================================================================
// Multi-Handler (Internal)
// =============================================================================

// multiHandler fans out log records to multiple slog handlers.
type multiHandler struct {
	handlers []slog.Handler
}

// Enabled returns true if any handler is enabled for the level.
func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle sends the record to all enabled handlers.
func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

// WithAttrs returns a new handler with additional attributes.
func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

// WithGroup returns a new handler with a group name.
func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// =============================================================================
// Memory Sink
// =============================================================================

// Entry is one record captured by a MemorySink.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
	Attrs   map[string]any
}

// MemorySink collects log records in memory.
//
// Useful for tests that verify what was logged:
//
//	sink := logging.NewMemorySink()
//	logger := logging.New(logging.Config{Quiet: true, Sink: sink})
//	suite := bench.NewSuite(bench.WithLogger(logger))
//	...
//	for _, e := range sink.Entries() { ... }
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{entries: make([]Entry, 0, 32)}
}

// Entries returns a copy of all collected entries.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Messages returns the messages of all entries at or above level.
func (s *MemorySink) Messages(level Level) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.entries {
		if e.Level >= level {
			out = append(out, e.Message)
		}
	}
	return out
}

func (s *MemorySink) add(e Entry) {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
}

// sinkHandler adapts a MemorySink to slog.Handler.
type sinkHandler struct {
	sink   *MemorySink
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

func (h *sinkHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *sinkHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[h.prefix+a.Key] = a.Value.Any()
		return true
	})
	h.sink.add(Entry{
		Time:    r.Time,
		Level:   fromSlogLevel(r.Level),
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

func (h *sinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &next
}

func (h *sinkHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func fromSlogLevel(l slog.Level) Level {
	switch {
	case l >= slog.LevelError:
		return LevelError
	case l >= slog.LevelWarn:
		return LevelWarn
	case l >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}
