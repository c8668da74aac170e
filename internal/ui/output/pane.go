// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/streampane/internal/config"
	"github.com/jeranaias/streampane/internal/logging"
	"github.com/jeranaias/streampane/internal/ui/styles"
)

// View is the append-only log the pane writes into.
type View interface {
	// Write appends one styled entry and keeps the view scrolled to the bottom.
	Write(entry string)
	// Width is the current display width in cells.
	Width() int
	// Clear removes every entry.
	Clear()
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options tunes rendering widths and the task separator.
type Options struct {
	// MinMarkdownWidth floors every markdown wrap width
	MinMarkdownWidth int
	// LineMargin is subtracted from the view width for single lines
	LineMargin int
	// BlockMargin is subtracted from the view width for AddMarkdown documents
	BlockMargin int
	// Separator surrounds the title written by StartTask
	Separator string
	// SeparatorStyle styles the StartTask line
	SeparatorStyle lipgloss.Style
}

// DefaultOptions returns the standard widths: margins of 2 and 4 with a 40-cell floor.
func DefaultOptions() Options {
	d := config.Default().Pane
	return Options{
		MinMarkdownWidth: d.MinMarkdownWidth,
		LineMargin:       d.LineMargin,
		BlockMargin:      d.BlockMargin,
		Separator:        d.Separator,
		SeparatorStyle:   lipgloss.NewStyle().Faint(true),
	}
}

// OptionsFromConfig builds Options from the [pane] config section and a theme.
func OptionsFromConfig(cfg config.PaneConfig, theme *styles.Theme) Options {
	opts := Options{
		MinMarkdownWidth: cfg.MinMarkdownWidth,
		LineMargin:       cfg.LineMargin,
		BlockMargin:      cfg.BlockMargin,
		Separator:        cfg.Separator,
		SeparatorStyle:   lipgloss.NewStyle().Faint(true),
	}
	if theme != nil {
		opts.SeparatorStyle = theme.Separator
	}
	return opts
}

// =============================================================================
// LOG PANE
// =============================================================================

// LogPane buffers streamed text into lines and renders each line into a View.
//
// Invariant: between calls, pending never contains a newline.
// LogPane is single-owner state; call it from the bubbletea loop only.
type LogPane struct {
	view     View
	renderer MarkdownRenderer
	opts     Options
	log      *logrus.Entry

	pending string
	outbox  []tea.Msg
}

// New creates a pane writing into view. A nil renderer disables markdown and
// every markdown candidate is written as plain text.
func New(view View, renderer MarkdownRenderer, opts Options) *LogPane {
	return &LogPane{
		view:     view,
		renderer: renderer,
		opts:     opts,
		log:      logging.Named("pane"),
	}
}

// StartTask flushes any partial line and writes a separator carrying title.
// taskID and kind do not change rendering.
func (p *LogPane) StartTask(taskID, title, kind string) {
	p.Flush()

	sep := p.opts.Separator
	p.view.Write("\n" + p.opts.SeparatorStyle.Render(sep+" "+title+" "+sep))

	p.log.WithFields(logrus.Fields{"task": taskID, "kind": kind}).Debug("task section started")
}

// AddOutput appends a fragment and renders every line it completes.
// A trailing partial line stays pending.
func (p *LogPane) AddOutput(text string) {
	if text == "" {
		return
	}

	p.pending += text
	for {
		line, rest, found := strings.Cut(p.pending, "\n")
		if !found {
			break
		}
		p.pending = rest
		p.writeLine(line)
	}
}

// AddMarkdown flushes any partial line, then renders text as one markdown
// document. Renderer failures write text unstyled.
func (p *LogPane) AddMarkdown(text string) {
	p.Flush()

	rendered, err := p.render(text, p.blockWidth())
	if err != nil {
		p.log.WithError(err).Debug("markdown block render failed, writing raw text")
		p.view.Write(text)
		return
	}
	p.view.Write(trimRendered(rendered))
}

// ClearOutput drops the partial line and every rendered entry.
func (p *LogPane) ClearOutput() {
	p.pending = ""
	p.view.Clear()
}

// Flush renders a pending partial line, if any.
func (p *LogPane) Flush() {
	if p.pending == "" {
		return
	}
	line := p.pending
	p.pending = ""
	p.writeLine(line)
}

// Pending returns the buffered partial line.
func (p *LogPane) Pending() string {
	return p.pending
}

// Notifications returns the queued notifications in order and clears the queue.
// Hosts that cannot wait for a Cmd round trip, such as on exit, read them here.
func (p *LogPane) Notifications() []tea.Msg {
	msgs := p.outbox
	p.outbox = nil
	return msgs
}

// Cmd drains queued notifications into a command for the bubbletea runtime.
// It returns nil when nothing is queued.
func (p *LogPane) Cmd() tea.Cmd {
	msgs := p.Notifications()
	if len(msgs) == 0 {
		return nil
	}

	cmds := make([]tea.Cmd, 0, len(msgs))
	for _, msg := range msgs {
		msg := msg
		cmds = append(cmds, func() tea.Msg { return msg })
	}

	if len(cmds) == 1 {
		return cmds[0]
	}
	// Sequence keeps cost updates in order so the latest figure wins
	return tea.Sequence(cmds...)
}

// =============================================================================
// LINE RENDERING
// =============================================================================

// writeLine runs one completed line through the formatting pipeline.
func (p *LogPane) writeLine(line string) {
	if line == "" {
		return
	}

	if cost, ok := ParseCost(line); ok {
		p.outbox = append(p.outbox, CostUpdateMsg{Cost: cost})
	}

	line = StripMarkup(line)

	if HasANSI(line) {
		if line = KeepSGR(line); line != "" {
			p.view.Write(line)
		}
		return
	}

	if HasMarkdown(line) {
		rendered, err := p.render(line, p.lineWidth())
		if err == nil {
			rendered = trimRendered(rendered)
		}
		if err == nil && rendered != "" {
			p.view.Write(rendered)
			return
		}
		if err != nil {
			p.log.WithError(err).Debug("markdown line render failed, writing plain text")
		}
	}

	p.view.Write(line)
}

func (p *LogPane) render(markdown string, width int) (string, error) {
	if p.renderer == nil {
		return "", errNoRenderer
	}
	return p.renderer.Render(markdown, width)
}

func (p *LogPane) lineWidth() int {
	return max(p.view.Width()-p.opts.LineMargin, p.opts.MinMarkdownWidth)
}

func (p *LogPane) blockWidth() int {
	return max(p.view.Width()-p.opts.BlockMargin, p.opts.MinMarkdownWidth)
}
