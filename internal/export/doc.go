// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes pane transcripts to disk.
//
// A Transcript is a snapshot of the log entries plus the finished tasks and
// the last reported session cost. Exporters turn it into bytes; files are
// written atomically through util.AtomicWriteFile.
//
// # Supported Formats
//
//   - text: ANSI styling stripped (default)
//   - ansi: entries written verbatim, for `less -R`
//   - markdown: frontmatter, task table and the output in a code block
//   - json: machine-readable, entries stripped
//
// # Usage
//
//	opts := export.OptionsFromConfig(cfg.Export)
//	path, err := export.ExportToFile(tr, opts)
package export
