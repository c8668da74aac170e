// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/streampane/internal/ui/styles"
)

// =============================================================================
// TASK STATUS
// =============================================================================

// Status is the footer's view of the current or last task.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusDone
	StatusFailed
	StatusCanceled
)

// String returns the display string for the status
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusRunning:
		return "Running"
	case StatusDone:
		return "Done"
	case StatusFailed:
		return "Failed"
	case StatusCanceled:
		return "Canceled"
	default:
		return "Unknown"
	}
}

// Icon returns a text indicator so status never depends on color alone.
func (s Status) Icon() string {
	switch s {
	case StatusRunning:
		return styles.StatusIndicators.Active
	case StatusDone:
		return styles.StatusIndicators.Success
	case StatusFailed:
		return styles.StatusIndicators.Error
	case StatusCanceled:
		return styles.StatusIndicators.Canceled
	default:
		return "-"
	}
}

// =============================================================================
// FOOTER COMPONENT - Bottom bar with task, cost and key hints
// =============================================================================

// Footer renders the one-line bar under the log.
type Footer struct {
	theme   *styles.Theme
	spinner spinner.Model

	width   int
	title   string
	status  Status
	entries int
	cost    float64
	hasCost bool
}

// NewFooter creates a Footer in the idle state.
func NewFooter(theme *styles.Theme) *Footer {
	if theme == nil {
		theme = styles.NewTheme()
	}

	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: styles.SpinnerFrames,
		FPS:    time.Second / styles.SpinnerFPS,
	}
	s.Style = theme.Spinner

	return &Footer{
		theme:   theme,
		spinner: s,
		width:   80,
	}
}

// SetWidth updates the footer width
func (f *Footer) SetWidth(width int) {
	f.width = width
}

// SetCost replaces the session cost. Reported figures are session totals.
func (f *Footer) SetCost(cost float64) {
	f.cost = cost
	f.hasCost = true
}

// Cost returns the last reported session cost.
func (f *Footer) Cost() float64 {
	return f.cost
}

// SetTask marks title as the running task.
func (f *Footer) SetTask(title string) {
	f.title = title
	f.status = StatusRunning
}

// SetStatus records how the current task ended.
func (f *Footer) SetStatus(status Status) {
	f.status = status
}

// Status returns the current task status.
func (f *Footer) Status() Status {
	return f.status
}

// SetEntries updates the entry count.
func (f *Footer) SetEntries(n int) {
	f.entries = n
}

// Tick starts the spinner.
func (f *Footer) Tick() tea.Cmd {
	return f.spinner.Tick
}

// Update advances the spinner while a task runs.
func (f *Footer) Update(msg tea.Msg) (*Footer, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok {
		return f, nil
	}
	if f.status != StatusRunning {
		return f, nil
	}

	var cmd tea.Cmd
	f.spinner, cmd = f.spinner.Update(msg)
	return f, cmd
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the footer, dropping detail as the terminal narrows.
func (f *Footer) View() string {
	theme := f.theme
	sep := theme.FooterMuted.Render(" | ")
	layout := styles.LayoutFor(f.width)

	var right []string
	if layout != styles.LayoutNarrow {
		right = append(right, theme.FooterMuted.Render(fmt.Sprintf("%d lines", f.entries)))
	}
	if f.hasCost {
		right = append(right, theme.Cost.Render(fmt.Sprintf("$%.4f", f.cost)))
	}
	if layout == styles.LayoutWide {
		right = append(right, f.renderHints(theme))
	}
	rightText := strings.Join(right, sep)

	indicator := f.renderIndicator(theme)

	// Padding(0, 1) on the bar takes two cells
	avail := f.width - 2 - lipgloss.Width(indicator) - 1
	if rightText != "" {
		avail -= lipgloss.Width(sep) + lipgloss.Width(rightText)
	}

	left := indicator
	if label := f.label(); label != "" && avail > 0 {
		left += " " + theme.FooterTitle.Render(runewidth.Truncate(label, avail, "..."))
	}

	line := left
	if rightText != "" {
		line += sep + rightText
	}
	return theme.Footer.Width(f.width).MaxWidth(f.width).MaxHeight(1).Render(line)
}

func (f *Footer) label() string {
	if f.title == "" {
		return f.status.String()
	}
	if f.status == StatusRunning {
		return f.title
	}
	return f.title + " (" + strings.ToLower(f.status.String()) + ")"
}

func (f *Footer) renderIndicator(theme *styles.Theme) string {
	switch f.status {
	case StatusRunning:
		return f.spinner.View()
	case StatusDone:
		return theme.StatusOK.Render(f.status.Icon())
	case StatusFailed:
		return theme.StatusFailed.Render(f.status.Icon())
	case StatusCanceled:
		return theme.StatusCanceled.Render(f.status.Icon())
	default:
		return theme.FooterMuted.Render(f.status.Icon())
	}
}

func (f *Footer) renderHints(theme *styles.Theme) string {
	hints := []struct{ key, desc string }{
		{"x", "cancel"},
		{"c", "clear"},
		{"s", "save"},
		{"q", "quit"},
	}
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, theme.ShortcutKey.Render(h.key)+" "+theme.ShortcutDesc.Render(h.desc))
	}
	return strings.Join(parts, " ")
}
