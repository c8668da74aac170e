// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/streampane/internal/tasks"
	"github.com/jeranaias/streampane/internal/ui/components"
	"github.com/jeranaias/streampane/internal/ui/output"
)

// =============================================================================
// HELPERS
// =============================================================================

type fakeRunner struct {
	cancels int
	running bool
}

func (f *fakeRunner) Cancel() bool {
	f.cancels++
	return f.running
}

var testNow = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	m := New(opts)
	return update(t, m, tea.WindowSizeMsg{Width: 100, Height: 20})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func updateCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func entries(m Model) []string {
	return m.LogView().Entries()
}

// =============================================================================
// TASK EVENTS
// =============================================================================

func TestModel_TaskLifecycle(t *testing.T) {
	m := newTestModel(t, Options{})

	m, cmd := updateCmd(t, m, TaskStartedMsg{ID: "1", Title: "build", Kind: tasks.KindCommand})
	assert.NotNil(t, cmd, "spinner tick is scheduled")
	assert.Equal(t, components.StatusRunning, m.Footer().Status())

	m = update(t, m, TaskOutputMsg{ID: "1", Text: "hel"})
	m = update(t, m, TaskOutputMsg{ID: "1", Text: "lo\nwor"})
	assert.Equal(t, "wor", m.Pane().Pending())

	m = update(t, m, TaskFinishedMsg{Result: tasks.Result{
		ID: "1", Title: "build", Kind: tasks.KindCommand, Status: tasks.TaskStatusComplete,
	}})

	got := entries(m)
	require.Len(t, got, 3)
	assert.Contains(t, got[0], "build")
	assert.Equal(t, "hello", got[1])
	assert.Equal(t, "wor", got[2], "finishing flushes the partial line")
	assert.Empty(t, m.Pane().Pending())
	assert.Equal(t, components.StatusDone, m.Footer().Status())

	records := m.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Complete", records[0].Status)
	assert.Equal(t, "command", records[0].Kind)
}

func TestModel_FailedTaskWritesStatusLine(t *testing.T) {
	m := newTestModel(t, Options{})
	m = update(t, m, TaskStartedMsg{ID: "1", Title: "test"})
	m = update(t, m, TaskFinishedMsg{Result: tasks.Result{
		ID: "1", Title: "test", Status: tasks.TaskStatusFailed, Err: errors.New("exit status 2"), ExitCode: 2,
	}})

	got := entries(m)
	last := got[len(got)-1]
	assert.Contains(t, last, "[X] test failed: exit status 2")
	assert.Equal(t, components.StatusFailed, m.Footer().Status())

	records := m.Records()
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].ExitCode)
	assert.Equal(t, "exit status 2", records[0].Error)
}

func TestModel_CanceledTaskWritesStatusLine(t *testing.T) {
	m := newTestModel(t, Options{})
	m = update(t, m, TaskStartedMsg{ID: "1", Title: "tail"})
	m = update(t, m, TaskFinishedMsg{Result: tasks.Result{ID: "1", Title: "tail", Status: tasks.TaskStatusCanceled}})

	got := entries(m)
	assert.Contains(t, got[len(got)-1], "[-] tail canceled")
	assert.Equal(t, components.StatusCanceled, m.Footer().Status())
}

func TestModel_CostFlowsToFooter(t *testing.T) {
	m := newTestModel(t, Options{})

	m, cmd := updateCmd(t, m, TaskOutputMsg{Text: "spent $0.0086 session\n"})
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, output.CostUpdateMsg{}, msg)

	m = update(t, m, msg)
	assert.InDelta(t, 0.0086, m.Footer().Cost(), 1e-9)
	assert.True(t, m.Transcript().HasCost)
	assert.Contains(t, m.View(), "$0.0086")
}

func TestModel_Markdown(t *testing.T) {
	m := newTestModel(t, Options{})
	m = update(t, m, TaskOutputMsg{Text: "partial"})
	m = update(t, m, TaskMarkdownMsg{Text: "# Title\n"})

	got := entries(m)
	require.Len(t, got, 2)
	assert.Equal(t, "partial", got[0])
	assert.Equal(t, "# Title\n", got[1], "no renderer writes the raw document")
}

// =============================================================================
// KEYS
// =============================================================================

func TestModel_ClearKey(t *testing.T) {
	m := newTestModel(t, Options{})
	m = update(t, m, TaskOutputMsg{Text: "one\ntwo\npart"})
	m = update(t, m, keyMsg("c"))

	assert.Empty(t, entries(m))
	assert.Empty(t, m.Pane().Pending())

	m = update(t, m, TaskOutputMsg{Text: "x\n"})
	assert.Equal(t, []string{"x"}, entries(m))
}

func TestModel_CancelKey(t *testing.T) {
	runner := &fakeRunner{running: true}
	m := newTestModel(t, Options{Runner: runner})

	m, cmd := updateCmd(t, m, keyMsg("x"))
	assert.Nil(t, cmd)
	assert.Equal(t, 1, runner.cancels)
	assert.False(t, m.quitting)
}

func TestModel_QuitKeys(t *testing.T) {
	for _, msg := range []tea.KeyMsg{keyMsg("q"), {Type: tea.KeyCtrlC}} {
		runner := &fakeRunner{}
		m := newTestModel(t, Options{Runner: runner})

		m, cmd := updateCmd(t, m, msg)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
		assert.Equal(t, 1, runner.cancels)
		assert.Empty(t, m.View())
	}
}

func TestModel_QuitExportsTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	runner := &fakeRunner{}
	m := newTestModel(t, Options{ExportPath: path, Title: "demo", Runner: runner})
	m = update(t, m, TaskOutputMsg{Text: "first\nTotal: $0.0420 session"})

	m, cmd := updateCmd(t, m, keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, 1, runner.cancels)
	assert.Empty(t, m.Pane().Pending(), "quit flushes the partial line")
	assert.InDelta(t, 0.042, m.Footer().Cost(), 1e-9, "cost on the flushed line is applied before the snapshot")

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "the file is written by the command, not inside Update")

	exported, ok := cmd().(ExportedMsg)
	require.True(t, ok)
	require.NoError(t, exported.Err)

	m, cmd = updateCmd(t, m, exported)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	require.NoError(t, m.ExportErr())
	assert.Equal(t, path, m.LastExport())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "first\nTotal: $0.0420 session\n")
	assert.Contains(t, string(data), "# title: demo")
	assert.Contains(t, string(data), "# cost: $0.0420")
}

func TestModel_QuitExportFailureStillQuits(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))
	m := newTestModel(t, Options{ExportPath: filepath.Join(blocker, "session.log")})

	m, cmd := updateCmd(t, m, keyMsg("q"))
	require.NotNil(t, cmd)
	exported, ok := cmd().(ExportedMsg)
	require.True(t, ok)
	require.Error(t, exported.Err)

	m, cmd = updateCmd(t, m, exported)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Error(t, m.ExportErr())
	assert.Empty(t, m.LastExport())
}

func TestModel_SecondQuitDoesNotWaitForExport(t *testing.T) {
	m := newTestModel(t, Options{ExportPath: filepath.Join(t.TempDir(), "session.log")})

	m, cmd := updateCmd(t, m, keyMsg("q"))
	require.NotNil(t, cmd)

	_, cmd = updateCmd(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_SaveKeyExports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.md")
	m := newTestModel(t, Options{ExportPath: path})
	m = update(t, m, TaskOutputMsg{Text: "saved line\n"})

	m, cmd := updateCmd(t, m, keyMsg("s"))
	require.NotNil(t, cmd)
	msg := cmd()
	exported, ok := msg.(ExportedMsg)
	require.True(t, ok)
	require.NoError(t, exported.Err)
	assert.Equal(t, path, exported.Path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "---\n"), "extension selects markdown")

	m, cmd = updateCmd(t, m, exported)
	assert.Nil(t, cmd, "a save does not quit")
	assert.Equal(t, path, m.LastExport())
	got := entries(m)
	assert.Contains(t, got[len(got)-1], "saved transcript to "+path)
}

func TestModel_ExportFailureIsShown(t *testing.T) {
	m := newTestModel(t, Options{})
	m = update(t, m, ExportedMsg{Err: errors.New("disk full")})

	assert.EqualError(t, m.ExportErr(), "disk full")
	got := entries(m)
	assert.Contains(t, got[len(got)-1], "export failed: disk full")
}

func TestModel_HelpToggle(t *testing.T) {
	m := newTestModel(t, Options{})
	pageSize := m.LogView().PageSize()

	m = update(t, m, keyMsg("?"))
	assert.True(t, m.showHelp)
	assert.Less(t, m.LogView().PageSize(), pageSize)
	assert.Contains(t, m.View(), "save transcript")

	m = update(t, m, keyMsg("?"))
	assert.Equal(t, pageSize, m.LogView().PageSize())
}

func TestModel_ScrollKeys(t *testing.T) {
	m := newTestModel(t, Options{})
	for i := 0; i < 50; i++ {
		m = update(t, m, TaskOutputMsg{Text: "line\n"})
	}
	require.True(t, m.LogView().AtBottom())

	m = update(t, m, keyMsg("k"))
	assert.False(t, m.LogView().AutoScroll())

	m = update(t, m, keyMsg("G"))
	assert.True(t, m.LogView().AutoScroll())
	assert.True(t, m.LogView().AtBottom())
}

// =============================================================================
// RUNNER DONE
// =============================================================================

func TestModel_RunnerDone(t *testing.T) {
	m := newTestModel(t, Options{})
	m, cmd := updateCmd(t, m, RunnerDoneMsg{})
	assert.Nil(t, cmd)
	assert.True(t, m.Done())

	m = newTestModel(t, Options{QuitOnDone: true})
	_, cmd = updateCmd(t, m, RunnerDoneMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

// =============================================================================
// SINK
// =============================================================================

func TestSink_SendsMessages(t *testing.T) {
	var got []tea.Msg
	sink := Sink(func(msg tea.Msg) { got = append(got, msg) })

	sink.TaskStarted("1", "build", tasks.KindCommand)
	sink.TaskOutput("1", "out")
	sink.TaskMarkdown("1", "# doc")
	sink.TaskFinished(tasks.Result{ID: "1", Status: tasks.TaskStatusComplete})

	require.Len(t, got, 4)
	assert.Equal(t, TaskStartedMsg{ID: "1", Title: "build", Kind: tasks.KindCommand}, got[0])
	assert.Equal(t, TaskOutputMsg{ID: "1", Text: "out"}, got[1])
	assert.Equal(t, TaskMarkdownMsg{ID: "1", Text: "# doc"}, got[2])
	finished, ok := got[3].(TaskFinishedMsg)
	require.True(t, ok)
	assert.Equal(t, tasks.TaskStatusComplete, finished.Status)
}

func TestKeyMap_Help(t *testing.T) {
	km := DefaultKeyMap()
	assert.Len(t, km.ShortHelp(), 5)
	assert.Len(t, km.FullHelp(), 4)
}
