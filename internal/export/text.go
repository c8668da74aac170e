// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// =============================================================================
// TEXT EXPORTER
// =============================================================================

// TextExporter writes the transcript as a log file. Plain mode strips ANSI
// styling; keepANSI writes entries verbatim so `less -R` can replay them.
type TextExporter struct {
	options  *Options
	keepANSI bool
}

// NewTextExporter creates a new text exporter.
func NewTextExporter(opts *Options, keepANSI bool) *TextExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &TextExporter{options: opts, keepANSI: keepANSI}
}

// Export converts a transcript to text.
func (e *TextExporter) Export(tr *Transcript) ([]byte, error) {
	if tr == nil {
		return nil, fmt.Errorf("transcript is nil")
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("# streampane transcript\n")
		if tr.Title != "" {
			sb.WriteString(fmt.Sprintf("# title: %s\n", tr.Title))
		}
		if !tr.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("# started: %s\n", formatTimestamp(tr.CreatedAt)))
		}
		sb.WriteString(fmt.Sprintf("# exported: %s\n", formatTimestamp(e.options.now())))
		sb.WriteString(fmt.Sprintf("# entries: %d\n", len(tr.Entries)))
		if tr.HasCost {
			sb.WriteString(fmt.Sprintf("# cost: %s\n", formatCost(tr.Cost)))
		}
		for _, task := range tr.Tasks {
			sb.WriteString(fmt.Sprintf("# task: %s\n", taskLine(task)))
		}
		sb.WriteString("\n")
	}

	body := tr.Body()
	if !e.keepANSI {
		body = ansi.Strip(body)
	}
	sb.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		sb.WriteString("\n")
	}

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for text transcripts.
func (e *TextExporter) FileExtension() string {
	if e.keepANSI {
		return ".ansi.log"
	}
	return ".log"
}

// MimeType returns the MIME type for text transcripts.
func (e *TextExporter) MimeType() string {
	return "text/plain"
}

// taskLine renders one task as "[OK] title (command, 1.20s)".
func taskLine(task TaskRecord) string {
	line := fmt.Sprintf("%s %s (%s, %s)", statusMarker(task.Status), task.Title, task.Kind, formatDuration(task.Duration))
	if task.Error != "" {
		line += ": " + task.Error
	}
	return line
}

func statusMarker(status string) string {
	switch status {
	case "Complete":
		return "[OK]"
	case "Failed":
		return "[X]"
	case "Canceled":
		return "[-]"
	default:
		return "[?]"
	}
}
