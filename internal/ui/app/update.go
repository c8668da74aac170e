// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/streampane/internal/export"
	"github.com/jeranaias/streampane/internal/tasks"
	"github.com/jeranaias/streampane/internal/ui/components"
	"github.com/jeranaias/streampane/internal/ui/output"
	"github.com/jeranaias/streampane/internal/ui/styles"
)

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.view.Update(msg)
		return m, nil

	// =========================================================================
	// TASK EVENTS
	// =========================================================================

	case TaskStartedMsg:
		m.pane.StartTask(msg.ID, msg.Title, string(msg.Kind))
		m.footer.SetTask(msg.Title)
		return m, tea.Batch(m.paneCmd(), m.footer.Tick())

	case TaskOutputMsg:
		m.pane.AddOutput(msg.Text)
		return m, m.paneCmd()

	case TaskMarkdownMsg:
		m.pane.AddMarkdown(msg.Text)
		return m, m.paneCmd()

	case TaskFinishedMsg:
		return m.handleTaskFinished(msg)

	case RunnerDoneMsg:
		m.done = true
		m.log.WithField("tasks", len(m.records)).Debug("runner drained")
		if m.quitOnDone {
			return m.quit()
		}
		return m, nil

	// =========================================================================
	// NOTIFICATIONS
	// =========================================================================

	case output.CostUpdateMsg:
		m.setCost(msg.Cost)
		return m, nil

	case ExportedMsg:
		return m.handleExported(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.footer, cmd = m.footer.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) setCost(cost float64) {
	m.cost = cost
	m.hasCost = true
	m.footer.SetCost(cost)
}

// paneCmd refreshes the entry count and drains the pane's notifications.
func (m Model) paneCmd() tea.Cmd {
	m.footer.SetEntries(m.view.Len())
	return m.pane.Cmd()
}

// resize splits the terminal between the log view and the footer or help.
func (m *Model) resize() {
	m.help.Width = m.width
	m.footer.SetWidth(m.width)

	bottom := 1
	if m.showHelp {
		bottom = lipgloss.Height(m.help.View(m.keys))
	}
	m.view.SetSize(m.width, m.height-bottom)
}

// =============================================================================
// TASK HANDLERS
// =============================================================================

func (m Model) handleTaskFinished(msg TaskFinishedMsg) (tea.Model, tea.Cmd) {
	// A trailing partial line belongs to the task that produced it
	m.pane.Flush()

	switch msg.Status {
	case tasks.TaskStatusFailed:
		reason := "failed"
		if msg.Err != nil {
			reason = "failed: " + msg.Err.Error()
		}
		m.writeStatus(styles.StatusIndicators.Error, msg.Title, reason)
		m.footer.SetStatus(components.StatusFailed)
	case tasks.TaskStatusCanceled:
		m.writeStatus(styles.StatusIndicators.Canceled, msg.Title, "canceled")
		m.footer.SetStatus(components.StatusCanceled)
	default:
		m.footer.SetStatus(components.StatusDone)
	}

	record := export.TaskRecord{
		ID:       msg.ID,
		Title:    msg.Title,
		Kind:     string(msg.Kind),
		Status:   msg.Status.String(),
		ExitCode: msg.ExitCode,
		Duration: msg.Duration,
	}
	if msg.Err != nil {
		record.Error = msg.Err.Error()
	}
	m.records = append(m.records, record)

	return m, m.paneCmd()
}

func (m Model) writeStatus(icon, title, reason string) {
	m.view.Write(m.theme.StatusLine.Render(fmt.Sprintf("%s %s %s", icon, title, reason)))
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.resize()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		if m.runner != nil && m.runner.Cancel() {
			m.log.Debug("cancel requested")
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.pane.ClearOutput()
		return m, m.paneCmd()

	case key.Matches(msg, m.keys.Save):
		return m, m.exportCmd()

	case key.Matches(msg, m.keys.Up):
		m.view.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.view.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.view.ScrollUp(m.view.PageSize())
	case key.Matches(msg, m.keys.PageDown):
		m.view.ScrollDown(m.view.PageSize())
	case key.Matches(msg, m.keys.Home):
		m.view.ScrollToTop()
	case key.Matches(msg, m.keys.End):
		m.view.ScrollToBottom()
	}

	return m, nil
}

// quit cancels the running task and exits. With an export path set, the
// transcript is written off the loop first and the program exits once the
// ExportedMsg comes back. It never waits for the runner: the runner's
// goroutine may be blocked sending to this loop.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.quitting {
		// Second quit while the export is in flight
		return m, tea.Quit
	}
	m.quitting = true

	if m.runner != nil {
		m.runner.Cancel()
	}
	if m.exportPath == "" {
		return m, tea.Quit
	}

	// The flushed line may carry the final session cost; apply it before the
	// snapshot instead of sending it through the loop.
	m.pane.Flush()
	for _, msg := range m.pane.Notifications() {
		if c, ok := msg.(output.CostUpdateMsg); ok {
			m.setCost(c.Cost)
		}
	}

	write := m.exportCmd()
	return m, func() tea.Msg {
		msg := write().(ExportedMsg)
		msg.quit = true
		return msg
	}
}

// =============================================================================
// EXPORT
// =============================================================================

// exportCmd writes a snapshot of the transcript off the event loop.
func (m Model) exportCmd() tea.Cmd {
	tr := m.Transcript()
	opts := *m.exportOpts
	path := m.exportPath

	return func() tea.Msg {
		if path != "" {
			return ExportedMsg{Path: path, Err: export.WriteTranscript(path, tr, &opts)}
		}
		written, err := export.ExportToFile(tr, &opts)
		return ExportedMsg{Path: written, Err: err}
	}
}

func (m Model) handleExported(msg ExportedMsg) (tea.Model, tea.Cmd) {
	m.exportErr = msg.Err
	if msg.quit {
		if msg.Err != nil {
			m.log.WithError(msg.Err).Warn("export on quit failed")
		} else {
			m.lastExport = msg.Path
			m.log.WithField("path", msg.Path).Info("transcript exported")
		}
		return m, tea.Quit
	}

	if msg.Err != nil {
		m.log.WithError(msg.Err).Warn("export failed")
		m.view.Write(m.theme.StatusLine.Render(fmt.Sprintf("%s export failed: %v", styles.StatusIndicators.Error, msg.Err)))
		return m, m.paneCmd()
	}

	m.lastExport = msg.Path
	m.log.WithFields(logrus.Fields{"path": msg.Path, "format": m.exportOpts.Format}).Info("transcript exported")
	m.view.Write(m.theme.Separator.Render("saved transcript to " + msg.Path))
	return m, m.paneCmd()
}
