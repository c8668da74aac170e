// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/streampane/internal/config"
	"github.com/jeranaias/streampane/internal/export"
	"github.com/jeranaias/streampane/internal/logging"
	"github.com/jeranaias/streampane/internal/ui/components"
	"github.com/jeranaias/streampane/internal/ui/output"
	"github.com/jeranaias/streampane/internal/ui/styles"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Canceler cancels the running task without waiting for it. *tasks.Runner
// satisfies it.
type Canceler interface {
	Cancel() bool
}

// Options configures a Model.
type Options struct {
	// Config supplies pane and export settings (nil = defaults)
	Config *config.Config

	// Theme styles every component (nil = NewTheme)
	Theme *styles.Theme

	// Renderer renders markdown; nil writes markdown as plain text
	Renderer output.MarkdownRenderer

	// Runner is canceled by the cancel and quit keys
	Runner Canceler

	// ExportPath, when set, receives the transcript on quit and on save
	ExportPath string

	// QuitOnDone exits once the runner has drained its queue
	QuitOnDone bool

	// Title names the session in exports
	Title string

	// Now stamps exports (nil = time.Now)
	Now func() time.Time
}

// =============================================================================
// MODEL
// =============================================================================

// Model hosts the output pane, its log view and the footer.
// Sub-components are pointers so the value copies bubbletea makes share them.
type Model struct {
	theme  *styles.Theme
	keys   KeyMap
	help   help.Model
	runner Canceler
	log    *logrus.Entry

	view   *components.LogView
	pane   *output.LogPane
	footer *components.Footer

	exportOpts *export.Options
	exportPath string
	quitOnDone bool
	title      string
	startedAt  time.Time

	records []export.TaskRecord
	cost    float64
	hasCost bool

	width    int
	height   int
	showHelp bool
	done     bool
	quitting bool

	lastExport string
	exportErr  error
}

// New creates a Model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}

	view := components.NewLogView(theme, cfg.Pane.MaxEntries)
	pane := output.New(view, opts.Renderer, output.OptionsFromConfig(cfg.Pane, theme))

	exportOpts := export.OptionsFromConfig(cfg.Export)
	exportOpts.Now = opts.Now
	if opts.ExportPath != "" {
		exportOpts.Format = export.FormatFromPath(opts.ExportPath, exportOpts.Format)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	h := help.New()
	h.ShowAll = true

	return Model{
		theme:      theme,
		keys:       DefaultKeyMap(),
		help:       h,
		runner:     opts.Runner,
		log:        logging.Named("app"),
		view:       view,
		pane:       pane,
		footer:     components.NewFooter(theme),
		exportOpts: exportOpts,
		exportPath: opts.ExportPath,
		quitOnDone: opts.QuitOnDone,
		title:      opts.Title,
		startedAt:  now(),
		width:      80,
		height:     24,
	}
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Pane returns the output pane.
func (m Model) Pane() *output.LogPane {
	return m.pane
}

// LogView returns the log view the pane writes into.
func (m Model) LogView() *components.LogView {
	return m.view
}

// Footer returns the footer.
func (m Model) Footer() *components.Footer {
	return m.footer
}

// Records returns the finished tasks in completion order.
func (m Model) Records() []export.TaskRecord {
	return append([]export.TaskRecord(nil), m.records...)
}

// Done reports whether the runner has finished every task.
func (m Model) Done() bool {
	return m.done
}

// LastExport returns the path of the last successful export.
func (m Model) LastExport() string {
	return m.lastExport
}

// ExportErr returns the error of the last export, if it failed.
func (m Model) ExportErr() error {
	return m.exportErr
}

// Transcript snapshots the log for export.
func (m Model) Transcript() *export.Transcript {
	return &export.Transcript{
		Title:     m.title,
		CreatedAt: m.startedAt,
		Entries:   m.view.Entries(),
		Tasks:     m.Records(),
		Cost:      m.cost,
		HasCost:   m.hasCost,
	}
}
