// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"
)

// errNoRenderer is returned when a pane was built without a markdown renderer.
var errNoRenderer = errors.New("no markdown renderer configured")

// MarkdownRenderer turns markdown source into ANSI-styled text wrapped at width.
// A non-nil error tells the caller to fall back to plain text.
type MarkdownRenderer interface {
	Render(markdown string, width int) (string, error)
}

// =============================================================================
// GLAMOUR RENDERER
// =============================================================================

// maxCachedWidths bounds the per-width renderer cache; resizing a terminal by
// dragging produces a burst of distinct widths.
const maxCachedWidths = 8

// GlamourRenderer renders markdown with glamour.
// Not safe for concurrent use; the pane calls it from the UI loop only.
type GlamourRenderer struct {
	style     string
	config    *ansi.StyleConfig
	renderers map[int]*glamour.TermRenderer
}

// NewGlamourRenderer creates a renderer for a glamour style name.
// "auto" or "" picks a style from the terminal attached to stdout.
func NewGlamourRenderer(style string) *GlamourRenderer {
	return &GlamourRenderer{
		style:     ResolveStyle(style, os.Stdout),
		renderers: make(map[int]*glamour.TermRenderer),
	}
}

// Style returns the resolved glamour style name.
func (g *GlamourRenderer) Style() string {
	return g.style
}

// Render implements MarkdownRenderer. Panics inside glamour are returned as errors.
func (g *GlamourRenderer) Render(markdown string, width int) (rendered string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("markdown renderer panicked: %v", r)
		}
	}()

	tr, err := g.termRenderer(width)
	if err != nil {
		return "", err
	}
	return tr.Render(markdown)
}

func (g *GlamourRenderer) termRenderer(width int) (*glamour.TermRenderer, error) {
	if tr, ok := g.renderers[width]; ok {
		return tr, nil
	}

	if g.config == nil {
		cfg, err := compactStyle(g.style)
		if err != nil {
			return nil, err
		}
		g.config = &cfg
	}

	tr, err := glamour.NewTermRenderer(
		glamour.WithStyles(*g.config),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer (style %q, width %d): %w", g.style, width, err)
	}

	if len(g.renderers) >= maxCachedWidths {
		g.renderers = make(map[int]*glamour.TermRenderer)
	}
	g.renderers[width] = tr
	return tr, nil
}

// compactStyle loads a builtin glamour style, or a JSON style file, and removes
// the document margin and the blank lines glamour puts around every render, so
// a one-line snippet renders as one row.
func compactStyle(name string) (ansi.StyleConfig, error) {
	var cfg ansi.StyleConfig
	if builtin, ok := glamourstyles.DefaultStyles[name]; ok {
		cfg = *builtin
	} else {
		data, err := os.ReadFile(name)
		if err != nil {
			return cfg, fmt.Errorf("markdown style %q: not a builtin style or readable file: %w", name, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse markdown style %s: %w", name, err)
		}
	}

	margin := uint(0)
	cfg.Document.Margin = &margin
	cfg.Document.BlockPrefix = ""
	cfg.Document.BlockSuffix = ""
	cfg.CodeBlock.Margin = &margin
	return cfg, nil
}

// ResolveStyle maps "auto" (or "") to a concrete glamour style for the terminal
// behind w: "notty" without color support, otherwise "dark" or "light" by
// background. Any other name is returned unchanged.
func ResolveStyle(style string, w io.Writer) string {
	if style != "" && style != "auto" {
		return style
	}

	out := termenv.NewOutput(w)
	if out.Profile == termenv.Ascii {
		return "notty"
	}
	if out.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
