// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/streampane/internal/util"
)

// =============================================================================
// TASK STATUS
// =============================================================================

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusQueued indicates the task is waiting for the runner
	TaskStatusQueued TaskStatus = "Queued"

	// TaskStatusRunning indicates the task is streaming output
	TaskStatusRunning TaskStatus = "Running"

	// TaskStatusComplete indicates the task finished successfully
	TaskStatusComplete TaskStatus = "Complete"

	// TaskStatusFailed indicates the task returned an error or timed out
	TaskStatusFailed TaskStatus = "Failed"

	// TaskStatusCanceled indicates the task was canceled by the user
	TaskStatusCanceled TaskStatus = "Canceled"
)

// String returns the string representation of the task status.
func (s TaskStatus) String() string {
	return string(s)
}

// =============================================================================
// TASK KINDS
// =============================================================================

// Kind selects how a task produces output.
type Kind string

const (
	// KindCommand runs a shell command and streams its merged stdout and stderr
	KindCommand Kind = "command"

	// KindFollow streams a file and then everything appended to it
	KindFollow Kind = "follow"

	// KindStdin streams a reader until EOF
	KindStdin Kind = "stdin"

	// KindMarkdown renders a file once as a markdown document
	KindMarkdown Kind = "markdown"
)

// =============================================================================
// TASK STRUCTURE
// =============================================================================

// Task is one unit of streamed output shown as a section of the pane.
type Task struct {
	// ID is a unique identifier for this task
	ID string

	// Title is shown in the section separator and footer
	Title string

	// Kind selects the producer
	Kind Kind

	// Command is the shell command line (KindCommand)
	Command string

	// Path is the file to follow or render (KindFollow, KindMarkdown)
	Path string

	// Input is the reader to stream (KindStdin)
	Input io.Reader

	// Status is the current state of the task
	Status TaskStatus

	// StartTime is when the task started running
	StartTime time.Time

	// EndTime is when the task finished
	EndTime time.Time

	// Error is the error message if the task failed
	Error string

	// ExitCode is the command's exit status, -1 when it never exited
	ExitCode int

	cancel context.CancelFunc
	mu     sync.RWMutex
}

// =============================================================================
// TASK CREATION
// =============================================================================

func newTask(kind Kind, title string) *Task {
	return &Task{
		ID:       uuid.New().String(),
		Title:    title,
		Kind:     kind,
		Status:   TaskStatusQueued,
		ExitCode: -1,
	}
}

// NewCommandTask creates a task that runs command through the shell.
func NewCommandTask(command string) *Task {
	t := newTask(KindCommand, util.TruncateRunes(util.FirstLine(command), 60))
	t.Command = command
	return t
}

// NewFollowTask creates a task that streams path and follows appends.
func NewFollowTask(path string) *Task {
	t := newTask(KindFollow, "follow "+filepath.Base(path))
	t.Path = path
	return t
}

// NewStdinTask creates a task that streams r until EOF.
func NewStdinTask(title string, r io.Reader) *Task {
	if title == "" {
		title = "stdin"
	}
	t := newTask(KindStdin, title)
	t.Input = r
	return t
}

// NewMarkdownTask creates a task that renders path as markdown.
func NewMarkdownTask(path string) *Task {
	t := newTask(KindMarkdown, filepath.Base(path))
	t.Path = path
	return t
}

// =============================================================================
// TASK METHODS
// =============================================================================

// SetStatus updates the task status (thread-safe).
// Valid transitions: Queued -> Running -> Complete/Failed/Canceled, Queued -> Canceled
func (t *Task) SetStatus(status TaskStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !isValidTransition(t.Status, status) {
		return fmt.Errorf("invalid status transition from %s to %s", t.Status, status)
	}

	t.Status = status
	return nil
}

func isValidTransition(from, to TaskStatus) bool {
	if from == to {
		return true
	}

	switch from {
	case TaskStatusQueued:
		return to == TaskStatusRunning || to == TaskStatusCanceled
	case TaskStatusRunning:
		return to == TaskStatusComplete || to == TaskStatusFailed || to == TaskStatusCanceled
	default:
		// Terminal states
		return false
	}
}

// GetStatus returns the current task status (thread-safe).
func (t *Task) GetStatus() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// SetError records err and marks the task as failed (thread-safe).
// A task already canceled stays canceled.
func (t *Task) SetError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err == nil {
		return
	}
	t.Error = err.Error()
	if t.Status != TaskStatusCanceled {
		t.Status = TaskStatusFailed
	}
	t.EndTime = time.Now()
}

// GetError returns the error message (thread-safe).
func (t *Task) GetError() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Error
}

// SetExitCode records the command's exit status (thread-safe).
func (t *Task) SetExitCode(code int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ExitCode = code
}

// GetExitCode returns the command's exit status (thread-safe).
func (t *Task) GetExitCode() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ExitCode
}

// MarkStarted marks the task as running (thread-safe).
func (t *Task) MarkStarted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = TaskStatusRunning
	t.StartTime = time.Now()
}

// MarkComplete marks the task as successfully completed (thread-safe).
func (t *Task) MarkComplete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = TaskStatusComplete
	t.EndTime = time.Now()
}

// MarkCanceled marks the task as canceled (thread-safe).
func (t *Task) MarkCanceled() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Status = TaskStatusCanceled
	if t.EndTime.IsZero() {
		t.EndTime = time.Now()
	}
}

// SetCancelFunc stores the context cancel function for this task.
// It must be called once, before the task starts producing output.
func (t *Task) SetCancelFunc(cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel = cancel
}

// Cancel cancels the task if it's queued or running.
// Returns true if the task was canceled.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Status != TaskStatusRunning && t.Status != TaskStatusQueued {
		return false
	}

	if t.cancel != nil {
		t.cancel()
	}

	t.Status = TaskStatusCanceled
	t.EndTime = time.Now()
	return true
}

// Duration returns how long the task has been running or took to complete.
func (t *Task) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.StartTime.IsZero() {
		return 0
	}

	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}

	return t.EndTime.Sub(t.StartTime)
}

// IsComplete returns true if the task has finished (success, failure, or canceled).
func (t *Task) IsComplete() bool {
	status := t.GetStatus()
	return status == TaskStatusComplete || status == TaskStatusFailed || status == TaskStatusCanceled
}

// Summary returns a one-line summary of the task.
func (t *Task) Summary() string {
	status := t.GetStatus()
	duration := t.Duration()

	summary := fmt.Sprintf("[%s] %s (%s) - %s", t.ID[:8], t.Title, t.Kind, status)

	if duration > 0 {
		summary += fmt.Sprintf(" (%.1fs)", duration.Seconds())
	}

	return summary
}

// Clone creates a thread-safe copy of the task for reading.
// The clone shares Input with the original.
func (t *Task) Clone() *Task {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return &Task{
		ID:        t.ID,
		Title:     t.Title,
		Kind:      t.Kind,
		Command:   t.Command,
		Path:      t.Path,
		Input:     t.Input,
		Status:    t.Status,
		StartTime: t.StartTime,
		EndTime:   t.EndTime,
		Error:     t.Error,
		ExitCode:  t.ExitCode,
	}
}
