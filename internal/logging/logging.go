// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jeranaias/streampane/internal/config"
	"github.com/jeranaias/streampane/internal/util"
)

var (
	rootMu     sync.RWMutex
	rootLogger = newDiscardLogger()
)

// newDiscardLogger is the logger in effect before Setup runs, so packages can
// log unconditionally without scribbling over the TUI.
func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(PlainFormatter{})
	return l
}

// Setup points the root logger at a rotating log file and sets its level.
// The returned closer flushes and closes the file.
func Setup(cfg config.LogConfig) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Clean(util.ExpandHome(cfg.File)),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	l := logrus.New()
	l.SetOutput(file)
	l.SetLevel(level)
	l.SetFormatter(PlainFormatter{})

	SetRoot(l)
	return file, nil
}

// Root returns the shared logger.
func Root() *logrus.Logger {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return rootLogger
}

// SetRoot replaces the shared logger. nil restores the discarding default.
func SetRoot(l *logrus.Logger) {
	if l == nil {
		l = newDiscardLogger()
	}
	rootMu.Lock()
	defer rootMu.Unlock()
	rootLogger = l
}

// Named returns an entry tagged with a component field.
func Named(component string) *logrus.Entry {
	entry := logrus.NewEntry(Root())
	if component != "" {
		entry = entry.WithField("component", component)
	}
	return entry
}

// =============================================================================
// FORMATTER
// =============================================================================

// PlainFormatter writes one line per entry:
// [timestamp] [LEVEL] [component] message key=value ...
type PlainFormatter struct{}

// Format implements logrus.Formatter.
func (PlainFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if entry == nil {
		return []byte{}, nil
	}

	parts := make([]string, 0, 5)
	parts = append(parts, fmt.Sprintf("[%s]", entry.Time.UTC().Format(time.RFC3339Nano)))
	parts = append(parts, fmt.Sprintf("[%s]", strings.ToUpper(entry.Level.String())))
	if component, ok := entry.Data["component"].(string); ok && component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", component))
	}
	parts = append(parts, entry.Message)
	if fields := formatFields(entry.Data); fields != "" {
		parts = append(parts, fields)
	}
	return []byte(strings.Join(parts, " ") + "\n"), nil
}

func formatFields(fields logrus.Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "component" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}
