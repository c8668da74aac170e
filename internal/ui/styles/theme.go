// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styles used by the pane, log view and footer.
// It records the terminal's color capability at construction.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// OUTPUT PANE STYLES
	// ==========================================================================

	// Separator is the dim line written when a task section starts
	Separator lipgloss.Style
	// StatusLine styles the line written when a task fails or is canceled
	StatusLine lipgloss.Style
	// Indicator styles the "more below" scroll hint
	Indicator lipgloss.Style

	// ==========================================================================
	// FOOTER STYLES
	// ==========================================================================

	Footer       lipgloss.Style
	FooterTitle  lipgloss.Style
	FooterMuted  lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Cost         lipgloss.Style
	Spinner      lipgloss.Style

	StatusOK       lipgloss.Style
	StatusFailed   lipgloss.Style
	StatusCanceled lipgloss.Style
}

// NewTheme creates a theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Separator = lipgloss.NewStyle().
		Foreground(TextMuted).
		Faint(true)

	t.StatusLine = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.Indicator = lipgloss.NewStyle().
		Foreground(Purple).
		Italic(true)

	t.Footer = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.FooterTitle = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.FooterMuted = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Cost = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.StatusOK = lipgloss.NewStyle().
		Foreground(Emerald)

	t.StatusFailed = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.StatusCanceled = lipgloss.NewStyle().
		Foreground(Amber)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	return LayoutFor(t.Width)
}

// LayoutFor returns the layout mode for a given width.
func LayoutFor(width int) LayoutMode {
	if width < 60 {
		return LayoutNarrow
	}
	if width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)
