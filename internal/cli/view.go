// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/streampane/internal/tasks"
)

var viewCmd = &cobra.Command{
	Use:     "view <file.md>...",
	Short:   "Render markdown files in the pane",
	Example: `  streampane view README.md CHANGELOG.md`,
	Args:    usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(_ *cobra.Command, args []string) error {
		list := make([]*tasks.Task, 0, len(args))
		names := make([]string, 0, len(args))
		for _, path := range args {
			if err := checkFile(path); err != nil {
				return err
			}
			list = append(list, tasks.NewMarkdownTask(path))
			names = append(names, filepath.Base(path))
		}
		return startSession(sessionPlan{
			Command:    "view",
			Title:      strings.Join(names, ", "),
			Tasks:      list,
			QuitOnDone: flagQuitOnDone,
		})
	},
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
