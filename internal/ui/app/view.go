// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

// View implements tea.Model.
// Layout: log view (viewport + indicator row), then the footer or the help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	bottom := m.footer.View()
	if m.showHelp {
		bottom = m.help.View(m.keys)
	}
	return m.view.View() + "\n" + bottom
}
