// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/streampane/internal/tasks"
	"github.com/jeranaias/streampane/internal/util"
)

var runCmd = &cobra.Command{
	Use:   "run <command>...",
	Short: "Run shell commands and stream their output",
	Long: `Run each argument as a shell command, one after another. Each command gets
its own section in the pane; stdout and stderr are merged in order.`,
	Example: `  streampane run "make build" "make test"`,
	Args:    usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(_ *cobra.Command, args []string) error {
		list := make([]*tasks.Task, 0, len(args))
		for _, command := range args {
			list = append(list, tasks.NewCommandTask(command))
		}
		return startSession(sessionPlan{
			Command:    "run",
			Title:      sessionTitle(args),
			Tasks:      list,
			QuitOnDone: flagQuitOnDone,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// sessionTitle names a session after its first command.
func sessionTitle(commands []string) string {
	if len(commands) == 0 {
		return ""
	}
	title := util.TruncateRunes(util.FirstLine(commands[0]), 60)
	if len(commands) > 1 {
		title += fmt.Sprintf(" (+%d more)", len(commands)-1)
	}
	return title
}
