// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/streampane/internal/config"
	"github.com/jeranaias/streampane/internal/util"
)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is a snapshot of the pane taken for export.
type Transcript struct {
	// Title names the session, e.g. the command line that was run
	Title string

	// CreatedAt is when the session started
	CreatedAt time.Time

	// Entries are the log entries as rendered, ANSI styling included
	Entries []string

	// Tasks lists finished tasks in completion order
	Tasks []TaskRecord

	// Cost is the last reported session cost; HasCost is false when none was seen
	Cost    float64
	HasCost bool
}

// TaskRecord summarizes one finished task.
type TaskRecord struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Kind     string        `json:"kind"`
	Status   string        `json:"status"`
	ExitCode int           `json:"exit_code"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Body returns the entries joined by newlines.
func (t *Transcript) Body() string {
	return strings.Join(t.Entries, "\n")
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for transcript exporters.
type Exporter interface {
	// Export converts a transcript to the target format and returns the content.
	Export(tr *Transcript) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".log", ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where generated file names are placed.
	// Default: current working directory
	OutputDir string

	// Format is "text", "ansi", "markdown" or "json".
	Format string

	// IncludeMetadata includes a header with timestamp, task list and cost.
	IncludeMetadata bool

	// Now stamps the export; nil uses time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		Format:          "text",
		IncludeMetadata: true,
	}
}

// OptionsFromConfig builds Options from the [export] config section.
func OptionsFromConfig(cfg config.ExportConfig) *Options {
	return &Options{
		OutputDir:       util.ExpandHome(cfg.Dir),
		Format:          strings.ToLower(cfg.Format),
		IncludeMetadata: cfg.IncludeMetadata,
	}
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// ExporterFor returns the exporter for opts.Format.
func ExporterFor(opts *Options) (Exporter, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	switch strings.ToLower(opts.Format) {
	case "", "text":
		return NewTextExporter(opts, false), nil
	case "ansi":
		return NewTextExporter(opts, true), nil
	case "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", opts.Format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// WriteTranscript formats tr and writes it to path atomically.
func WriteTranscript(path string, tr *Transcript, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	if tr == nil {
		return fmt.Errorf("transcript is nil")
	}

	exporter, err := ExporterFor(opts)
	if err != nil {
		return err
	}

	content, err := exporter.Export(tr)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ExportToFile writes tr under opts.OutputDir with a generated name and
// returns the path.
func ExportToFile(tr *Transcript, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	exporter, err := ExporterFor(opts)
	if err != nil {
		return "", err
	}

	path := DefaultPath(opts.OutputDir, exporter.FileExtension(), opts.now())
	if err := WriteTranscript(path, tr, opts); err != nil {
		return "", err
	}
	return path, nil
}

// FormatFromPath picks a format from the file extension of path, falling
// back to fallback for anything it does not recognize.
func FormatFromPath(path, fallback string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "markdown"
	case ".json":
		return "json"
	default:
		return fallback
	}
}

// DefaultPath returns dir/streampane_YYYYMMDD_HHMMSS<ext>.
func DefaultPath(dir, ext string, now time.Time) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "streampane_"+now.Format("20060102_150405")+ext)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatDuration formats a duration to a human-readable string.
func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	seconds := float64(ms) / 1000.0
	if seconds < 60 {
		return fmt.Sprintf("%.2fs", seconds)
	}
	minutes := int(seconds / 60)
	remainingSeconds := int(seconds) % 60
	return fmt.Sprintf("%dm %ds", minutes, remainingSeconds)
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatCost formats a session cost the way the footer shows it.
func formatCost(cost float64) string {
	return fmt.Sprintf("$%.4f", cost)
}
