// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the process-wide logrus logger.
//
// The TUI owns the terminal, so log output goes to a size-rotated file managed
// by lumberjack. Components obtain a tagged entry with Named:
//
//	closer, err := logging.Setup(cfg.Log)
//	if err != nil {
//	    return err
//	}
//	defer closer.Close()
//
//	log := logging.Named("runner")
//	log.WithField("task", id).Info("task started")
package logging
