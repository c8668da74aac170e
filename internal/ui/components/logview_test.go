// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/streampane/internal/ui/styles"
)

func newSizedLogView(t *testing.T, width, height, maxEntries int) *LogView {
	t.Helper()
	lv := NewLogView(styles.NewTheme(), maxEntries)
	lv.SetSize(width, height)
	return lv
}

func writeN(lv *LogView, n int) {
	for i := 0; i < n; i++ {
		lv.Write(fmt.Sprintf("line %d", i))
	}
}

func TestLogView_WriteAndTranscript(t *testing.T) {
	lv := newSizedLogView(t, 40, 10, 0)

	lv.Write("first")
	lv.Write("\x1b[31msecond\x1b[0m")

	assert.Equal(t, 2, lv.Len())
	assert.Equal(t, "first\n\x1b[31msecond\x1b[0m", lv.Transcript())
	assert.Equal(t, 40, lv.Width())

	entries := lv.Entries()
	assert.Equal(t, []string{"first", "\x1b[31msecond\x1b[0m"}, entries)
	entries[0] = "changed"
	assert.Equal(t, "first", lv.Entries()[0], "Entries returns a copy")
	assert.Equal(t, 9, lv.PageSize())
}

func TestLogView_MaxEntriesDropsOldest(t *testing.T) {
	lv := newSizedLogView(t, 40, 10, 3)

	for _, s := range []string{"a", "b", "c", "d", "e"} {
		lv.Write(s)
	}

	assert.Equal(t, 3, lv.Len())
	assert.Equal(t, "c\nd\ne", lv.Transcript())
	assert.Len(t, lv.wrapped, 3)
}

func TestLogView_WrapsLongEntries(t *testing.T) {
	lv := newSizedLogView(t, 10, 10, 0)

	lv.Write(strings.Repeat("a", 20))

	lines := strings.Split(lv.wrapped[0], "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.LessOrEqual(t, ansi.StringWidth(line), 10)
	}
	// The transcript keeps the entry as written
	assert.Equal(t, strings.Repeat("a", 20), lv.Transcript())
}

func TestLogView_SetSizeRewraps(t *testing.T) {
	lv := newSizedLogView(t, 10, 10, 0)
	lv.Write(strings.Repeat("b", 20))
	require.Contains(t, lv.wrapped[0], "\n")

	lv.SetSize(40, 10)

	assert.NotContains(t, lv.wrapped[0], "\n")
}

func TestLogView_AutoScroll(t *testing.T) {
	lv := newSizedLogView(t, 40, 4, 0)

	writeN(lv, 20)
	assert.True(t, lv.AtBottom())
	assert.True(t, lv.AutoScroll())

	lv.ScrollUp(5)
	assert.False(t, lv.AtBottom())
	assert.False(t, lv.AutoScroll())

	// New output does not yank the user back down
	lv.Write("more")
	assert.False(t, lv.AtBottom())

	lv.ScrollDown(100)
	assert.True(t, lv.AtBottom())
	assert.True(t, lv.AutoScroll())
}

func TestLogView_ScrollKeys(t *testing.T) {
	lv := newSizedLogView(t, 40, 4, 0)
	writeN(lv, 20)

	lv, _ = lv.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")})
	assert.False(t, lv.AutoScroll())

	lv, _ = lv.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	assert.Contains(t, lv.View(), "line 0")

	lv, _ = lv.Update(tea.KeyMsg{Type: tea.KeyEnd})
	assert.True(t, lv.AtBottom())
	assert.True(t, lv.AutoScroll())
	assert.Contains(t, lv.View(), "line 19")
}

func TestLogView_MouseWheel(t *testing.T) {
	lv := newSizedLogView(t, 40, 4, 0)
	writeN(lv, 20)

	lv, _ = lv.Update(tea.MouseMsg{Type: tea.MouseWheelUp})
	assert.False(t, lv.AtBottom())

	lv, _ = lv.Update(tea.MouseMsg{Type: tea.MouseWheelDown})
	assert.True(t, lv.AtBottom())
}

func TestLogView_IndicatorWhileScrolledBack(t *testing.T) {
	lv := newSizedLogView(t, 60, 4, 0)
	writeN(lv, 20)

	assert.NotContains(t, ansi.Strip(lv.View()), "more below")

	lv.ScrollToTop()
	assert.Contains(t, ansi.Strip(lv.View()), "more below")
}

func TestLogView_Clear(t *testing.T) {
	lv := newSizedLogView(t, 40, 4, 0)
	writeN(lv, 20)
	lv.ScrollUp(3)

	lv.Clear()

	assert.Zero(t, lv.Len())
	assert.Empty(t, lv.Transcript())
	assert.True(t, lv.AutoScroll())

	lv.Write("x")
	assert.Equal(t, "x", lv.Transcript())
}

func TestLogView_NotReadyRendersNothing(t *testing.T) {
	lv := NewLogView(nil, 0)
	lv.Write("hidden")
	assert.Empty(t, lv.View())
}
