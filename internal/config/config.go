// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/streampane/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete streampane configuration.
type Config struct {
	Version string `toml:"version"`

	// Pane controls line rendering in the output pane
	Pane PaneConfig `toml:"pane"`

	// Stream controls how task output is read and delivered to the UI
	Stream StreamConfig `toml:"stream"`

	// Log controls the rotating log file
	Log LogConfig `toml:"log"`

	// Export controls transcript export
	Export ExportConfig `toml:"export"`
}

// PaneConfig contains output pane rendering settings.
type PaneConfig struct {
	// MinMarkdownWidth is the narrowest width markdown is ever rendered at
	MinMarkdownWidth int `toml:"min_markdown_width"`
	// LineMargin is subtracted from the pane width for single-line markdown
	LineMargin int `toml:"line_margin"`
	// BlockMargin is subtracted from the pane width for whole markdown documents
	BlockMargin int `toml:"block_margin"`
	// MaxEntries caps retained log entries (0 = unlimited)
	MaxEntries int `toml:"max_entries"`
	// MarkdownStyle is a glamour style name: "auto", "dark", "light", "notty", "ascii", ...
	MarkdownStyle string `toml:"markdown_style"`
	// Separator is drawn on both sides of a task title
	Separator string `toml:"separator"`
}

// StreamConfig contains producer-side settings.
type StreamConfig struct {
	// MaxFPS caps how often coalesced output is delivered to the UI
	MaxFPS int `toml:"max_fps"`
	// ChunkSize is the read buffer size for task output
	ChunkSize int `toml:"chunk_size"`
	// Shell overrides the shell used for command tasks (empty = auto-detect)
	Shell string `toml:"shell"`
	// TaskTimeoutSecs bounds each task (0 = no timeout)
	TaskTimeoutSecs int `toml:"task_timeout_secs"`
}

// LogConfig contains log file settings.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// ExportConfig contains transcript export settings.
type ExportConfig struct {
	// Dir is where transcripts are written when no explicit path is given
	Dir string `toml:"dir"`
	// Format is "text" (ANSI stripped), "ansi" (verbatim), "markdown" or "json"
	Format string `toml:"format"`
	// IncludeMetadata prepends a header with timestamp and entry count
	IncludeMetadata bool `toml:"include_metadata"`
}

// TaskTimeout returns the per-task timeout as a duration.
func (s StreamConfig) TaskTimeout() time.Duration {
	return time.Duration(s.TaskTimeoutSecs) * time.Second
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Pane: PaneConfig{
			MinMarkdownWidth: 40,
			LineMargin:       2,
			BlockMargin:      4,
			MaxEntries:       10000,
			MarkdownStyle:    "auto",
			Separator:        "───",
		},
		Stream: StreamConfig{
			MaxFPS:          30,
			ChunkSize:       4096,
			Shell:           "",
			TaskTimeoutSecs: 0,
		},
		Log: LogConfig{
			Level:      "info",
			File:       "~/.streampane/streampane.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
		Export: ExportConfig{
			Dir:             ".",
			Format:          "text",
			IncludeMetadata: true,
		},
	}
}

// SetDefaults fills zero values left by a partial config file.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}

	if c.Pane.MinMarkdownWidth == 0 {
		c.Pane.MinMarkdownWidth = d.Pane.MinMarkdownWidth
	}
	if c.Pane.MarkdownStyle == "" {
		c.Pane.MarkdownStyle = d.Pane.MarkdownStyle
	}
	if c.Pane.Separator == "" {
		c.Pane.Separator = d.Pane.Separator
	}

	if c.Stream.MaxFPS == 0 {
		c.Stream.MaxFPS = d.Stream.MaxFPS
	}
	if c.Stream.ChunkSize == 0 {
		c.Stream.ChunkSize = d.Stream.ChunkSize
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.File == "" {
		c.Log.File = d.Log.File
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = d.Log.MaxSizeMB
	}

	if c.Export.Dir == "" {
		c.Export.Dir = d.Export.Dir
	}
	if c.Export.Format == "" {
		c.Export.Format = d.Export.Format
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns ~/.streampane.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".streampane"), nil
}

// ConfigPath returns ~/.streampane/config.toml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the default config file if present, then applies environment
// overrides, defaults, and validation. A missing file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return finalize(Default())
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return finalize(Default())
	}
	return LoadFromPath(path)
}

// LoadFromPath reads a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}
	return finalize(cfg)
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	data, err := os.ReadFile(util.ExpandHome(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}
	return nil
}

func finalize(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVING
// =============================================================================

// Encode renders the configuration as TOML.
func (c *Config) Encode() (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.String(), nil
}

// SaveTOML writes the configuration to path atomically.
func SaveTOML(cfg *Config, path string) error {
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(util.ExpandHome(path), []byte(data), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies STREAMPANE_* environment variables.
// Unparseable numeric values are ignored.
func (c *Config) ApplyEnvOverrides() {
	// STREAMPANE_LOG_LEVEL
	if level := os.Getenv("STREAMPANE_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}

	// STREAMPANE_LOG_FILE
	if file := os.Getenv("STREAMPANE_LOG_FILE"); file != "" {
		c.Log.File = file
	}

	// STREAMPANE_MARKDOWN_STYLE
	if style := os.Getenv("STREAMPANE_MARKDOWN_STYLE"); style != "" {
		c.Pane.MarkdownStyle = style
	}

	// STREAMPANE_SHELL
	if shell := os.Getenv("STREAMPANE_SHELL"); shell != "" {
		c.Stream.Shell = shell
	}

	// STREAMPANE_MAX_FPS
	if fps := os.Getenv("STREAMPANE_MAX_FPS"); fps != "" {
		if n, err := strconv.Atoi(fps); err == nil {
			c.Stream.MaxFPS = n
		}
	}

	// STREAMPANE_EXPORT_DIR
	if dir := os.Getenv("STREAMPANE_EXPORT_DIR"); dir != "" {
		c.Export.Dir = dir
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Pane.MinMarkdownWidth < 1 {
		errs = append(errs, ValidationError{
			Field:   "pane.min_markdown_width",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Pane.MinMarkdownWidth),
		})
	}
	if c.Pane.LineMargin < 0 {
		errs = append(errs, ValidationError{
			Field:   "pane.line_margin",
			Message: fmt.Sprintf("must not be negative, got %d", c.Pane.LineMargin),
		})
	}
	if c.Pane.BlockMargin < 0 {
		errs = append(errs, ValidationError{
			Field:   "pane.block_margin",
			Message: fmt.Sprintf("must not be negative, got %d", c.Pane.BlockMargin),
		})
	}
	if c.Pane.MaxEntries < 0 {
		errs = append(errs, ValidationError{
			Field:   "pane.max_entries",
			Message: fmt.Sprintf("must not be negative, got %d", c.Pane.MaxEntries),
		})
	}

	if c.Stream.MaxFPS < 1 || c.Stream.MaxFPS > 120 {
		errs = append(errs, ValidationError{
			Field:   "stream.max_fps",
			Message: fmt.Sprintf("must be between 1 and 120, got %d", c.Stream.MaxFPS),
		})
	}
	if c.Stream.ChunkSize < 64 {
		errs = append(errs, ValidationError{
			Field:   "stream.chunk_size",
			Message: fmt.Sprintf("must be at least 64 bytes, got %d", c.Stream.ChunkSize),
		})
	}
	if c.Stream.TaskTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "stream.task_timeout_secs",
			Message: fmt.Sprintf("must not be negative, got %d", c.Stream.TaskTimeoutSecs),
		})
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: trace, debug, info, warn, error", c.Log.Level),
		})
	}

	validFormats := map[string]bool{"text": true, "ansi": true, "markdown": true, "json": true}
	if !validFormats[strings.ToLower(c.Export.Format)] {
		errs = append(errs, ValidationError{
			Field:   "export.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: text, ansi, markdown, json", c.Export.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
