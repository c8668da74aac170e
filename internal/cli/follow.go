// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/streampane/internal/tasks"
	"github.com/jeranaias/streampane/internal/util"
)

var followCmd = &cobra.Command{
	Use:   "follow <file>",
	Short: "Follow a growing file",
	Long: `Show a file and everything appended to it, like tail -f. Truncating the file
starts over from the top; removing it ends the section.`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := checkFile(args[0]); err != nil {
			return err
		}
		task := tasks.NewFollowTask(args[0])
		return startSession(sessionPlan{
			Command:    "follow",
			Title:      task.Title,
			Tasks:      []*tasks.Task{task},
			QuitOnDone: flagQuitOnDone,
		})
	},
}

func init() {
	rootCmd.AddCommand(followCmd)
}

// checkFile fails early, before the pane takes over the terminal.
func checkFile(path string) error {
	info, err := os.Stat(util.ExpandHome(path))
	if errors.Is(err, os.ErrNotExist) {
		return &NotFoundError{Resource: "file", ID: path}
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
