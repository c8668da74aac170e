// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the bubbletea program that hosts the output pane.
//
// The task runner works on its own goroutine and reports through a
// tasks.Sink; Sink turns those callbacks into messages delivered with
// Program.Send, so the pane is only ever touched from Update.
//
// Layout, top to bottom: the log view (with its scroll indicator row) and
// the one-line footer. Toggling help replaces the footer with the full key
// reference.
package app
