// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SINK
// =============================================================================

type sinkEvent struct {
	kind   string
	id     string
	text   string
	result Result
}

type recordingSink struct {
	mu     sync.Mutex
	events []sinkEvent
}

func (s *recordingSink) add(e sinkEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) TaskStarted(id, title string, kind Kind) {
	s.add(sinkEvent{kind: "started", id: id, text: title})
}

func (s *recordingSink) TaskOutput(id, text string) {
	s.add(sinkEvent{kind: "output", id: id, text: text})
}

func (s *recordingSink) TaskMarkdown(id, text string) {
	s.add(sinkEvent{kind: "markdown", id: id, text: text})
}

func (s *recordingSink) TaskFinished(result Result) {
	s.add(sinkEvent{kind: "finished", id: result.ID, result: result})
}

func (s *recordingSink) snapshot() []sinkEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sinkEvent(nil), s.events...)
}

func (s *recordingSink) output(id string) string {
	var b strings.Builder
	for _, e := range s.snapshot() {
		if e.kind == "output" && e.id == id {
			b.WriteString(e.text)
		}
	}
	return b.String()
}

func (s *recordingSink) result(id string) (Result, bool) {
	for _, e := range s.snapshot() {
		if e.kind == "finished" && e.id == id {
			return e.result, true
		}
	}
	return Result{}, false
}

func (s *recordingSink) started(id string) bool {
	for _, e := range s.snapshot() {
		if e.kind == "started" && e.id == id {
			return true
		}
	}
	return false
}

// =============================================================================
// HELPERS
// =============================================================================

func skipWithoutPOSIXShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("command tests use POSIX shell syntax")
	}
}

func testOptions() Options {
	return Options{Shell: "/bin/sh", MaxFPS: 60, ChunkSize: 512}
}

// runAll queues tasks, closes the queue and waits for the runner to drain it.
func runAll(t *testing.T, opts Options, tasks ...*Task) *recordingSink {
	t.Helper()
	sink := &recordingSink{}
	queue := NewQueue(0)
	runner := NewRunner(queue, sink, opts)
	for _, task := range tasks {
		require.NoError(t, runner.Submit(task))
	}
	queue.Close()

	runner.Start(context.Background())
	waitOrFail(t, runner, 10*time.Second)
	return sink
}

func waitOrFail(t *testing.T, runner *Runner, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		runner.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("runner did not finish in time")
	}
}

// =============================================================================
// COMMAND TASKS
// =============================================================================

func TestRunner_CommandMergesStdoutAndStderr(t *testing.T) {
	skipWithoutPOSIXShell(t)

	task := NewCommandTask("echo out; echo err 1>&2; echo done")
	sink := runAll(t, testOptions(), task)

	assert.Equal(t, "out\nerr\ndone\n", sink.output(task.ID))

	result, ok := sink.result(task.ID)
	require.True(t, ok)
	assert.Equal(t, TaskStatusComplete, result.Status)
	assert.NoError(t, result.Err)
	assert.Equal(t, 0, result.ExitCode)
}

func TestRunner_CommandExitCode(t *testing.T) {
	skipWithoutPOSIXShell(t)

	task := NewCommandTask("echo partial; exit 3")
	sink := runAll(t, testOptions(), task)

	result, ok := sink.result(task.ID)
	require.True(t, ok)
	assert.Equal(t, TaskStatusFailed, result.Status)
	assert.Equal(t, 3, result.ExitCode)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "exit status 3")
	assert.Equal(t, "partial\n", sink.output(task.ID))
}

func TestRunner_EmptyCommandFails(t *testing.T) {
	task := NewCommandTask("   ")
	sink := runAll(t, testOptions(), task)

	result, ok := sink.result(task.ID)
	require.True(t, ok)
	assert.Equal(t, TaskStatusFailed, result.Status)
}

func TestRunner_TasksNeverInterleave(t *testing.T) {
	skipWithoutPOSIXShell(t)

	first := NewCommandTask("for i in 1 2 3; do echo a$i; sleep 0.01; done")
	second := NewCommandTask("echo b1")
	sink := runAll(t, testOptions(), first, second)

	var order []string
	for _, e := range sink.snapshot() {
		if e.kind == "started" || e.kind == "finished" {
			order = append(order, e.kind+":"+e.id)
		}
		if e.kind == "output" {
			// Output belongs to the task between its started and finished events
			last := order[len(order)-1]
			assert.Equal(t, "started:"+e.id, last)
		}
	}
	assert.Equal(t, []string{
		"started:" + first.ID, "finished:" + first.ID,
		"started:" + second.ID, "finished:" + second.ID,
	}, order)
}

func TestRunner_Timeout(t *testing.T) {
	skipWithoutPOSIXShell(t)

	opts := testOptions()
	opts.TaskTimeout = 200 * time.Millisecond
	task := NewCommandTask("sleep 5")
	sink := runAll(t, opts, task)

	result, ok := sink.result(task.ID)
	require.True(t, ok)
	assert.Equal(t, TaskStatusFailed, result.Status)
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "timed out")
}

func TestRunner_CancelCurrent(t *testing.T) {
	skipWithoutPOSIXShell(t)

	sink := &recordingSink{}
	queue := NewQueue(0)
	runner := NewRunner(queue, sink, testOptions())

	slow := NewCommandTask("echo ready; sleep 30")
	next := NewCommandTask("echo next")
	require.NoError(t, runner.Submit(slow))
	require.NoError(t, runner.Submit(next))
	queue.Close()

	assert.False(t, runner.Cancel(), "nothing runs before Start")

	runner.Start(context.Background())
	require.Eventually(t, func() bool {
		return strings.Contains(sink.output(slow.ID), "ready")
	}, 5*time.Second, 10*time.Millisecond)

	assert.True(t, runner.Cancel())
	waitOrFail(t, runner, 10*time.Second)

	result, ok := sink.result(slow.ID)
	require.True(t, ok)
	assert.Equal(t, TaskStatusCanceled, result.Status)
	assert.NoError(t, result.Err)

	// Canceling one task does not stop the queue
	assert.Equal(t, "next\n", sink.output(next.ID))
}

func TestRunner_StopCancelsQueued(t *testing.T) {
	skipWithoutPOSIXShell(t)

	sink := &recordingSink{}
	queue := NewQueue(0)
	runner := NewRunner(queue, sink, testOptions())

	slow := NewCommandTask("echo ready; sleep 30")
	never := NewCommandTask("echo never")
	require.NoError(t, runner.Submit(slow))
	require.NoError(t, runner.Submit(never))

	runner.Start(context.Background())
	require.Eventually(t, func() bool {
		return sink.started(slow.ID)
	}, 5*time.Second, 10*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		runner.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		t.Fatal("Stop did not return")
	}

	result, ok := sink.result(slow.ID)
	require.True(t, ok)
	assert.Equal(t, TaskStatusCanceled, result.Status)

	assert.False(t, sink.started(never.ID))
	assert.Equal(t, TaskStatusCanceled, never.GetStatus())
}

func TestRunner_WaitWithoutStart(t *testing.T) {
	runner := NewRunner(NewQueue(0), &recordingSink{}, testOptions())
	runner.Wait()
	runner.Stop()
}

// =============================================================================
// STDIN AND MARKDOWN TASKS
// =============================================================================

func TestRunner_StdinTask(t *testing.T) {
	input := "line one\nline two\npartial"
	task := NewStdinTask("piped", strings.NewReader(input))
	sink := runAll(t, testOptions(), task)

	assert.Equal(t, input, sink.output(task.ID))
	result, _ := sink.result(task.ID)
	assert.Equal(t, TaskStatusComplete, result.Status)
}

func TestRunner_StdinWithoutReaderFails(t *testing.T) {
	task := NewStdinTask("empty", nil)
	sink := runAll(t, testOptions(), task)

	result, _ := sink.result(task.ID)
	assert.Equal(t, TaskStatusFailed, result.Status)
}

func TestRunner_MarkdownTask(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes\n\n- one\n"), 0600))

	task := NewMarkdownTask(path)
	sink := runAll(t, testOptions(), task)

	var docs []string
	for _, e := range sink.snapshot() {
		if e.kind == "markdown" {
			docs = append(docs, e.text)
		}
	}
	assert.Equal(t, []string{"# Notes\n\n- one\n"}, docs)
	assert.Empty(t, sink.output(task.ID))
}

func TestRunner_MarkdownMissingFile(t *testing.T) {
	task := NewMarkdownTask(filepath.Join(t.TempDir(), "missing.md"))
	sink := runAll(t, testOptions(), task)

	result, _ := sink.result(task.ID)
	assert.Equal(t, TaskStatusFailed, result.Status)
	assert.Contains(t, result.Err.Error(), "missing.md")
}

// =============================================================================
// SHELL DETECTION
// =============================================================================

func TestShellCommand_Configured(t *testing.T) {
	tests := []struct {
		shell string
		flag  string
	}{
		{"/bin/zsh", "-c"},
		{"pwsh", "-Command"},
		{`C:\Windows\System32\cmd.exe`, "/c"},
	}
	for _, tt := range tests {
		shell, flag := shellCommand(tt.shell)
		assert.Equal(t, tt.shell, shell)
		if runtime.GOOS == "windows" || !strings.Contains(tt.shell, `\`) {
			assert.Equal(t, tt.flag, flag)
		}
	}
}

func TestShellCommand_Detected(t *testing.T) {
	shell, flag := shellCommand("")
	assert.NotEmpty(t, shell)
	assert.NotEmpty(t, flag)
}
