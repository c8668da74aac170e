// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the visual building blocks of the streampane UI.

# Display Components

LogView (logview.go) - Append-only scrollable log over a bubbles viewport.
Entries are soft-wrapped with ANSI awareness, the history is capped at
MaxEntries, and the view follows new output until the user scrolls back.
LogView implements output.View, so a LogPane writes straight into it.

Footer (footer.go) - One-line bar showing the running task with a spinner, the
last task status, the entry count, the session cost and key hints.

# Usage

	theme := styles.NewTheme()
	log := components.NewLogView(theme, cfg.Pane.MaxEntries)
	log.SetSize(width, height-1)

	footer := components.NewFooter(theme)
	footer.SetWidth(width)
	footer.SetCost(0.0086)

Both components render with View() and take bubbletea messages through Update.
*/
package components
