// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for streampane.
//
// Configuration is TOML, with built-in defaults and environment variable
// overrides.
//
// # Key Types
//
//   - Config: main configuration structure
//   - PaneConfig: output pane rendering (markdown widths, entry cap, style)
//   - StreamConfig: task output delivery (frame cap, chunk size, shell, timeout)
//   - LogConfig: rotating log file
//   - ExportConfig: transcript export
//
// # Configuration Precedence
//
//   - Environment variables (STREAMPANE_*)
//   - ~/.streampane/config.toml, or the file passed with --config
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	width := cfg.Pane.MinMarkdownWidth
package config
