// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import "time"

// Sink receives task events from the runner goroutine.
// Events for one task arrive in order: TaskStarted, any number of TaskOutput
// or TaskMarkdown, then TaskFinished. Tasks never interleave.
type Sink interface {
	TaskStarted(id, title string, kind Kind)
	TaskOutput(id, text string)
	TaskMarkdown(id, text string)
	TaskFinished(result Result)
}

// Result describes how a task ended.
type Result struct {
	ID       string
	Title    string
	Kind     Kind
	Status   TaskStatus
	Err      error
	ExitCode int
	Duration time.Duration
}

// resultOf builds a Result from a finished task.
func resultOf(t *Task, err error) Result {
	snap := t.Clone()
	return Result{
		ID:       snap.ID,
		Title:    snap.Title,
		Kind:     snap.Kind,
		Status:   snap.Status,
		Err:      err,
		ExitCode: snap.ExitCode,
		Duration: t.Duration(),
	}
}
