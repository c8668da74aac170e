// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package output implements the streaming log pane: an append-only view fed by
arbitrary text fragments.

# Line Buffering (pane.go)

LogPane accumulates fragments until a newline completes a line, then renders
each completed line exactly once, in arrival order. A trailing partial line is
held until a later fragment completes it or the pane is flushed (Flush,
StartTask, AddMarkdown). ClearOutput drops both the partial line and the view.

# Formatting Pipeline (format.go)

Every completed line goes through, in order:

  - cost detection: "$0.0123 session" queues a CostUpdateMsg
  - markup stripping: allowlisted tags such as [bold], [/blue] and [/] are removed
  - ANSI passthrough: lines carrying escape sequences are written verbatim
  - markdown: lines with markdown markers are rendered through MarkdownRenderer
  - plain text: everything else, and every markdown failure

# Rendering (render.go)

MarkdownRenderer returns (string, error) so the pane can pick its fallback
branch explicitly. GlamourRenderer is the production implementation; it caches
one glamour term renderer per wrap width.

# Notifications (messages.go)

The pane never talks to other widgets directly. Cost updates are queued and
handed to the bubbletea runtime through Cmd, which the host returns from Update.

	pane := output.New(logView, output.NewGlamourRenderer("auto"), output.DefaultOptions())
	pane.StartTask(task.ID, "go test ./...", "command")
	pane.AddOutput("ok  \tpkg\t0.2s\n")
	return m, pane.Cmd()
*/
package output
