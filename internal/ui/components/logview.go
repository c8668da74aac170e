// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jeranaias/streampane/internal/ui/styles"
)

// =============================================================================
// LOG VIEW COMPONENT - Append-only scrollable log with indicators
// =============================================================================

// wheelLines is how far one mouse wheel notch scrolls.
const wheelLines = 3

// LogView is an append-only list of styled entries shown in a viewport.
// It satisfies output.View.
type LogView struct {
	viewport   viewport.Model
	theme      *styles.Theme
	entries    []string // as written
	wrapped    []string // entries soft-wrapped to the current width
	maxEntries int
	width      int
	height     int
	ready      bool
	autoScroll bool // Follow new entries while the user is at the bottom
}

// NewLogView creates a LogView. maxEntries caps the history (0 = unlimited).
func NewLogView(theme *styles.Theme, maxEntries int) *LogView {
	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()

	return &LogView{
		viewport:   vp,
		theme:      theme,
		maxEntries: maxEntries,
		width:      80,
		height:     20,
		autoScroll: true,
	}
}

// SetSize updates the dimensions and rewraps every entry.
// One row is reserved for the scroll indicator.
func (lv *LogView) SetSize(width, height int) {
	lv.width = max(width, 1)
	lv.height = max(height, 2)
	lv.viewport.Width = lv.width
	lv.viewport.Height = lv.height - 1
	lv.ready = true

	lv.wrapped = lv.wrapped[:0]
	for _, entry := range lv.entries {
		lv.wrapped = append(lv.wrapped, lv.wrap(entry))
	}
	lv.refresh()
}

// Write appends one entry and follows it when auto-scroll is on.
func (lv *LogView) Write(entry string) {
	lv.entries = append(lv.entries, entry)
	lv.wrapped = append(lv.wrapped, lv.wrap(entry))

	if lv.maxEntries > 0 && len(lv.entries) > lv.maxEntries {
		drop := len(lv.entries) - lv.maxEntries
		lv.entries = append(lv.entries[:0], lv.entries[drop:]...)
		lv.wrapped = append(lv.wrapped[:0], lv.wrapped[drop:]...)
	}
	lv.refresh()
}

// Width returns the content width in cells.
func (lv *LogView) Width() int {
	return lv.width
}

// Clear drops every entry and re-enables auto-scroll.
func (lv *LogView) Clear() {
	lv.entries = nil
	lv.wrapped = nil
	lv.autoScroll = true
	lv.refresh()
	lv.viewport.GotoTop()
}

// Len returns the number of entries held.
func (lv *LogView) Len() int {
	return len(lv.entries)
}

// Transcript returns every entry, as written, joined by newlines.
func (lv *LogView) Transcript() string {
	return strings.Join(lv.entries, "\n")
}

// Entries returns a copy of every entry as written.
func (lv *LogView) Entries() []string {
	return append([]string(nil), lv.entries...)
}

// PageSize is the number of rows one page scroll moves.
func (lv *LogView) PageSize() int {
	return lv.viewport.Height
}

// AutoScroll reports whether new entries scroll the view.
func (lv *LogView) AutoScroll() bool {
	return lv.autoScroll
}

func (lv *LogView) wrap(entry string) string {
	return ansi.Wrap(entry, lv.width, "")
}

// refresh pushes the wrapped entries into the viewport.
func (lv *LogView) refresh() {
	lv.viewport.SetContent(strings.Join(lv.wrapped, "\n"))
	if lv.autoScroll {
		lv.viewport.GotoBottom()
	}
}

// =============================================================================
// SCROLLING
// =============================================================================

// ScrollUp scrolls up and hands control to the user.
func (lv *LogView) ScrollUp(lines int) {
	lv.viewport.LineUp(lines)
	lv.autoScroll = lv.viewport.AtBottom()
}

// ScrollDown scrolls down; reaching the bottom re-enables auto-scroll.
func (lv *LogView) ScrollDown(lines int) {
	lv.viewport.LineDown(lines)
	if lv.viewport.AtBottom() {
		lv.autoScroll = true
	}
}

// ScrollToTop jumps to the first line.
func (lv *LogView) ScrollToTop() {
	lv.viewport.GotoTop()
	lv.autoScroll = lv.viewport.AtBottom()
}

// ScrollToBottom jumps to the last line and resumes following.
func (lv *LogView) ScrollToBottom() {
	lv.viewport.GotoBottom()
	lv.autoScroll = true
}

// AtBottom reports whether the last line is visible.
func (lv *LogView) AtBottom() bool {
	return lv.viewport.AtBottom()
}

// Update handles scroll keys and the mouse wheel.
func (lv *LogView) Update(msg tea.Msg) (*LogView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			lv.ScrollUp(1)
		case "down", "j":
			lv.ScrollDown(1)
		case "pgup":
			lv.ScrollUp(lv.viewport.Height)
		case "pgdown", "pgdn":
			lv.ScrollDown(lv.viewport.Height)
		case "home", "g":
			lv.ScrollToTop()
		case "end", "G":
			lv.ScrollToBottom()
		}
		return lv, nil

	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp:
			lv.ScrollUp(wheelLines)
		case tea.MouseWheelDown:
			lv.ScrollDown(wheelLines)
		}
		return lv, nil
	}

	return lv, nil
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the log followed by the scroll indicator row.
func (lv *LogView) View() string {
	if !lv.ready {
		return ""
	}
	return lv.viewport.View() + "\n" + lv.renderIndicator()
}

// renderIndicator shows the scroll position while the user is reading back.
func (lv *LogView) renderIndicator() string {
	if lv.viewport.AtBottom() {
		return ""
	}

	text := fmt.Sprintf("v %d%% - more below (End to follow)", int(lv.viewport.ScrollPercent()*100))
	style := lipgloss.NewStyle()
	if lv.theme != nil {
		style = lv.theme.Indicator
	}
	return style.Width(lv.width).Align(lipgloss.Center).Render(text)
}
