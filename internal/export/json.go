// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports transcripts to JSON for other tools to consume.
// Entries are ANSI-stripped; metadata is always included.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

type jsonTranscript struct {
	Title      string       `json:"title,omitempty"`
	StartedAt  *time.Time   `json:"started_at,omitempty"`
	ExportedAt time.Time    `json:"exported_at"`
	Cost       *float64     `json:"cost,omitempty"`
	Tasks      []TaskRecord `json:"tasks"`
	Entries    []string     `json:"entries"`
}

// Export converts a transcript to JSON format.
func (e *JSONExporter) Export(tr *Transcript) ([]byte, error) {
	if tr == nil {
		return nil, fmt.Errorf("transcript is nil")
	}

	out := jsonTranscript{
		Title:      tr.Title,
		ExportedAt: e.options.now().UTC(),
		Tasks:      tr.Tasks,
		Entries:    make([]string, len(tr.Entries)),
	}
	if out.Tasks == nil {
		out.Tasks = []TaskRecord{}
	}
	if !tr.CreatedAt.IsZero() {
		started := tr.CreatedAt.UTC()
		out.StartedAt = &started
	}
	if tr.HasCost {
		cost := tr.Cost
		out.Cost = &cost
	}
	for i, entry := range tr.Entries {
		out.Entries[i] = ansi.Strip(entry)
	}

	return json.MarshalIndent(out, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
