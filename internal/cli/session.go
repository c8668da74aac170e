// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/streampane/internal/logging"
	"github.com/jeranaias/streampane/internal/tasks"
	"github.com/jeranaias/streampane/internal/ui/app"
	"github.com/jeranaias/streampane/internal/ui/output"
	"github.com/jeranaias/streampane/internal/ui/styles"
	"github.com/jeranaias/streampane/internal/util"
)

// sessionPlan describes one pane session.
type sessionPlan struct {
	// Command names the cobra command, for errors
	Command string
	// Title names the session in exports
	Title string
	// Tasks run in order, one pane section each
	Tasks []*tasks.Task
	// QuitOnDone exits when the last task finishes
	QuitOnDone bool
}

// startSession opens the pane. Tests replace it to inspect the tasks built.
var startSession = runSession

// runSession wires config, logging, the runner and the bubbletea program,
// and blocks until the user quits.
func runSession(plan sessionPlan) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	closer, err := logging.Setup(cfg.Log)
	if err != nil {
		return &ConfigError{Err: err}
	}
	defer closer.Close()
	defer logging.SetRoot(nil)
	log := logging.Named("cli")

	lipgloss.SetColorProfile(ColorProfile())

	// The sink needs the program and the model needs the runner; the program
	// is assigned before the runner starts.
	var program *tea.Program
	queue := tasks.NewQueue(0)
	runner := tasks.NewRunner(queue, app.Sink(func(msg tea.Msg) { program.Send(msg) }), tasks.OptionsFromConfig(cfg.Stream))

	for _, task := range plan.Tasks {
		if err := runner.Submit(task); err != nil {
			return &CommandError{Command: plan.Command, Action: "queue", Err: err}
		}
	}
	queue.Close()

	exportPath := ""
	if flagExport != "" {
		exportPath = util.ExpandHome(flagExport)
	}

	model := app.New(app.Options{
		Config:     cfg,
		Theme:      styles.NewTheme(),
		Renderer:   output.NewGlamourRenderer(cfg.Pane.MarkdownStyle),
		Runner:     runner,
		ExportPath: exportPath,
		QuitOnDone: plan.QuitOnDone,
		Title:      plan.Title,
	})

	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if !flagNoAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if StdinPiped() {
		opts = append(opts, tea.WithInputTTY())
	}
	program = tea.NewProgram(model, opts...)

	log.WithFields(logrus.Fields{"command": plan.Command, "tasks": len(plan.Tasks)}).Info("session started")

	runner.Start(context.Background())
	go func() {
		runner.Wait()
		program.Send(app.RunnerDoneMsg{})
	}()

	final, runErr := program.Run()

	// Never stop the runner from inside Update: its goroutine may be
	// blocked in Send until the loop exits.
	runner.Stop()
	queue.LogReport(log)

	if runErr != nil {
		return &CommandError{Command: plan.Command, Action: "run", Err: runErr}
	}

	if m, ok := final.(app.Model); ok {
		if err := m.ExportErr(); err != nil {
			return &CommandError{Command: plan.Command, Action: "export", Err: err}
		}
		if path := m.LastExport(); path != "" && path == exportPath {
			fmt.Fprintf(os.Stderr, "transcript saved to %s\n", path)
		}
	}
	return nil
}
