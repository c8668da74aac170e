// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/streampane/internal/config"
)

var fixedNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

func testOptions(format string) *Options {
	return &Options{
		OutputDir:       ".",
		Format:          format,
		IncludeMetadata: true,
		Now:             func() time.Time { return fixedNow },
	}
}

func sampleTranscript() *Transcript {
	return &Transcript{
		Title:     "make build",
		CreatedAt: fixedNow.Add(-time.Minute),
		Entries: []string{
			"\n─── make build ───",
			"\x1b[32mok\x1b[0m compiled",
			"plain line",
		},
		Tasks: []TaskRecord{
			{ID: "a", Title: "make build", Kind: "command", Status: "Complete", Duration: 1200 * time.Millisecond},
			{ID: "b", Title: "make test", Kind: "command", Status: "Failed", ExitCode: 2, Error: "exit status 2", Duration: 300 * time.Millisecond},
		},
		Cost:    0.0086,
		HasCost: true,
	}
}

// =============================================================================
// FORMAT SELECTION
// =============================================================================

func TestExporterFor(t *testing.T) {
	tests := []struct {
		format string
		ext    string
		mime   string
	}{
		{"", ".log", "text/plain"},
		{"text", ".log", "text/plain"},
		{"ansi", ".ansi.log", "text/plain"},
		{"Markdown", ".md", "text/markdown"},
		{"md", ".md", "text/markdown"},
		{"json", ".json", "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			exp, err := ExporterFor(testOptions(tt.format))
			require.NoError(t, err)
			assert.Equal(t, tt.ext, exp.FileExtension())
			assert.Equal(t, tt.mime, exp.MimeType())
		})
	}

	_, err := ExporterFor(testOptions("pdf"))
	assert.Error(t, err)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default().Export
	cfg.Format = "JSON"
	cfg.Dir = "/tmp/out"

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, "json", opts.Format)
	assert.Equal(t, "/tmp/out", opts.OutputDir)
	assert.True(t, opts.IncludeMetadata)
}

// =============================================================================
// TEXT
// =============================================================================

func TestTextExporter_StripsANSI(t *testing.T) {
	out, err := NewTextExporter(testOptions("text"), false).Export(sampleTranscript())
	require.NoError(t, err)
	s := string(out)

	assert.NotContains(t, s, "\x1b[")
	assert.Contains(t, s, "ok compiled\nplain line\n")
	assert.Contains(t, s, "# title: make build\n")
	assert.Contains(t, s, "# exported: 2025-03-14 15:09:26\n")
	assert.Contains(t, s, "# entries: 3\n")
	assert.Contains(t, s, "# cost: $0.0086\n")
	assert.Contains(t, s, "# task: [OK] make build (command, 1.20s)\n")
	assert.Contains(t, s, "# task: [X] make test (command, 300ms): exit status 2\n")
}

func TestTextExporter_KeepsANSI(t *testing.T) {
	out, err := NewTextExporter(testOptions("ansi"), true).Export(sampleTranscript())
	require.NoError(t, err)
	assert.Contains(t, string(out), "\x1b[32mok\x1b[0m compiled")
}

func TestTextExporter_NoMetadata(t *testing.T) {
	opts := testOptions("text")
	opts.IncludeMetadata = false

	tr := &Transcript{Entries: []string{"one", "two"}}
	out, err := NewTextExporter(opts, false).Export(tr)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(out))
}

func TestTextExporter_NilTranscript(t *testing.T) {
	_, err := NewTextExporter(nil, false).Export(nil)
	assert.Error(t, err)
}

// =============================================================================
// MARKDOWN
// =============================================================================

func TestMarkdownExporter(t *testing.T) {
	out, err := NewMarkdownExporter(testOptions("markdown")).Export(sampleTranscript())
	require.NoError(t, err)
	s := string(out)

	assert.True(t, strings.HasPrefix(s, "---\n"))
	assert.Contains(t, s, "title: make build\n")
	assert.Contains(t, s, "cost: \"$0.0086\"\n")
	assert.Contains(t, s, "# make build\n")
	assert.Contains(t, s, "| [X] | make test | command | 300ms |\n")
	assert.Contains(t, s, "```text\n")
	assert.Contains(t, s, "ok compiled\nplain line\n```\n")
	assert.NotContains(t, s, "\x1b[")
}

func TestMarkdownExporter_FenceOutgrowsBody(t *testing.T) {
	tr := &Transcript{Entries: []string{"```go", "x := 1", "```"}}
	out, err := NewMarkdownExporter(testOptions("markdown")).Export(tr)
	require.NoError(t, err)
	assert.Contains(t, string(out), "````text\n```go\n")
}

func TestEscapeHelpers(t *testing.T) {
	assert.Equal(t, `a\_b \*c\* \#1`, escapeMarkdown("a_b *c* #1"))
	assert.Equal(t, `a \| b`, escapeTableCell("a | b"))
	assert.Equal(t, "plain", escapeYAML("plain"))
	assert.Equal(t, `"a: b"`, escapeYAML("a: b"))
	assert.Equal(t, `"line\nnext"`, escapeYAML("line\nnext"))
}

// =============================================================================
// JSON
// =============================================================================

func TestJSONExporter(t *testing.T) {
	out, err := NewJSONExporter(testOptions("json")).Export(sampleTranscript())
	require.NoError(t, err)

	var decoded struct {
		Title      string       `json:"title"`
		ExportedAt time.Time    `json:"exported_at"`
		Cost       *float64     `json:"cost"`
		Tasks      []TaskRecord `json:"tasks"`
		Entries    []string     `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))

	assert.Equal(t, "make build", decoded.Title)
	assert.True(t, decoded.ExportedAt.Equal(fixedNow))
	require.NotNil(t, decoded.Cost)
	assert.InDelta(t, 0.0086, *decoded.Cost, 1e-9)
	require.Len(t, decoded.Tasks, 2)
	assert.Equal(t, 2, decoded.Tasks[1].ExitCode)
	assert.Equal(t, "ok compiled", decoded.Entries[1])
}

func TestJSONExporter_NoCost(t *testing.T) {
	out, err := NewJSONExporter(testOptions("json")).Export(&Transcript{})
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"cost"`)
	assert.Contains(t, string(out), `"tasks": []`)
}

// =============================================================================
// FILES
// =============================================================================

func TestWriteTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.log")
	require.NoError(t, WriteTranscript(path, sampleTranscript(), testOptions("text")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "plain line")
}

func TestWriteTranscript_Errors(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, WriteTranscript(filepath.Join(dir, "x.log"), nil, nil))
	assert.Error(t, WriteTranscript(filepath.Join(dir, "x.log"), sampleTranscript(), testOptions("pdf")))
}

func TestExportToFile(t *testing.T) {
	opts := testOptions("markdown")
	opts.OutputDir = t.TempDir()

	path, err := ExportToFile(sampleTranscript(), opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(opts.OutputDir, "streampane_20250314_150926.md"), path)
	assert.FileExists(t, path)
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "streampane_20250314_150926.log", DefaultPath("", ".log", fixedNow))
	assert.Equal(t, filepath.Join("out", "streampane_20250314_150926.json"), DefaultPath("out", ".json", fixedNow))
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, "markdown", FormatFromPath("out/session.MD", "text"))
	assert.Equal(t, "json", FormatFromPath("session.json", "text"))
	assert.Equal(t, "ansi", FormatFromPath("session.log", "ansi"))
	assert.Equal(t, "text", FormatFromPath("session", "text"))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "1.50s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m 5s", formatDuration(125*time.Second))
}
