// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/jeranaias/streampane/internal/tasks"
)

// =============================================================================
// TASK MESSAGES
// =============================================================================

// TaskStartedMsg opens a new section of the pane.
type TaskStartedMsg struct {
	ID    string
	Title string
	Kind  tasks.Kind
}

// TaskOutputMsg carries a raw output fragment. Fragments are not lines.
type TaskOutputMsg struct {
	ID   string
	Text string
}

// TaskMarkdownMsg carries a whole markdown document.
type TaskMarkdownMsg struct {
	ID   string
	Text string
}

// TaskFinishedMsg reports how a task ended.
type TaskFinishedMsg struct {
	tasks.Result
}

// RunnerDoneMsg is sent once the runner has drained its queue.
type RunnerDoneMsg struct{}

// =============================================================================
// EXPORT MESSAGES
// =============================================================================

// ExportedMsg reports the outcome of a transcript export.
type ExportedMsg struct {
	Path string
	Err  error

	// quit is set for the export written on the way out
	quit bool
}
