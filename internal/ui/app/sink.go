// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/streampane/internal/tasks"
)

// programSink forwards runner events into the bubbletea loop.
type programSink struct {
	send func(tea.Msg)
}

// Sink adapts runner callbacks into messages. Pass Program.Send.
func Sink(send func(tea.Msg)) tasks.Sink {
	return &programSink{send: send}
}

func (s *programSink) TaskStarted(id, title string, kind tasks.Kind) {
	s.send(TaskStartedMsg{ID: id, Title: title, Kind: kind})
}

func (s *programSink) TaskOutput(id, text string) {
	s.send(TaskOutputMsg{ID: id, Text: text})
}

func (s *programSink) TaskMarkdown(id, text string) {
	s.send(TaskMarkdownMsg{ID: id, Text: text})
}

func (s *programSink) TaskFinished(result tasks.Result) {
	s.send(TaskFinishedMsg{Result: result})
}
