// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across streampane.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis (task titles)
//   - FirstLine: first non-empty line of a multi-line string
//
// Path Utilities:
//   - ExpandHome: resolves a leading "~" against the user's home directory
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync (transcript export,
//     config save)
//
// # Usage
//
//	title := util.TruncateRunes(command, 60)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
