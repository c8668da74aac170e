// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the streampane command line.
//
// # Commands
//
//   - streampane: stream piped stdin into the pane
//   - run: run shell commands in order, one pane section each
//   - follow: follow a growing file
//   - view: render markdown files
//   - config: print or initialize the configuration
//   - version: print version information
//
// Every command that opens the pane goes through startSession, which wires
// config, logging, the task runner and the bubbletea program together.
package cli
