// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the benchnode CLI and
// the terminal reporters.
package ux

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color palette - deep ocean teals
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // Bright teal - highlights
	ColorTealPrimary = lipgloss.Color("#20B9B4") // Primary teal - bars
	ColorSlate       = lipgloss.Color("#2C4A54") // Slate - muted text

	ColorWarning = lipgloss.Color("#F4D03F") // Gold/amber for warnings
	ColorError   = lipgloss.Color("#E74C3C") // Red for errors
)

// BlockChar is the fill character of bars.
const BlockChar = '█'

// Theme renders text with lipgloss styles, or leaves it untouched when
// colour is disabled.
//
// Use NewTheme(IsTerminal(w)) so that output piped to a file or captured
// in a test carries no escape sequences.
type Theme struct {
	enabled bool

	title   lipgloss.Style
	muted   lipgloss.Style
	bar     lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
}

// NewTheme creates a theme. With enabled false every method returns its
// input unchanged.
func NewTheme(enabled bool) Theme {
	return Theme{
		enabled: enabled,
		title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
		muted:   lipgloss.NewStyle().Foreground(ColorSlate),
		bar:     lipgloss.NewStyle().Foreground(ColorTealPrimary),
		warning: lipgloss.NewStyle().Foreground(ColorWarning),
		err:     lipgloss.NewStyle().Foreground(ColorError),
	}
}

// ThemeFor returns a theme with colour enabled only if w is a terminal.
func ThemeFor(w io.Writer) Theme {
	return NewTheme(IsTerminal(w))
}

// Enabled reports whether the theme emits styles.
func (t Theme) Enabled() bool { return t.enabled }

// Title styles a heading.
func (t Theme) Title(s string) string { return t.render(t.title, s) }

// Muted styles secondary text.
func (t Theme) Muted(s string) string { return t.render(t.muted, s) }

// Bar styles a bar of BlockChar.
func (t Theme) Bar(s string) string { return t.render(t.bar, s) }

// Warning styles a warning.
func (t Theme) Warning(s string) string { return t.render(t.warning, s) }

// Error styles an error.
func (t Theme) Error(s string) string { return t.render(t.err, s) }

func (t Theme) render(style lipgloss.Style, s string) string {
	if !t.enabled || s == "" {
		return s
	}
	return style.Render(s)
}

// Blocks returns n BlockChar runes.
func Blocks(n int) string {
	return repeatChar(BlockChar, n)
}

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func repeatChar(c rune, n int) string {
	if n <= 0 {
		return ""
	}
	result := make([]rune, n)
	for i := range result {
		result[i] = c
	}
	return string(result)
}
