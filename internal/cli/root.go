// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/streampane/internal/config"
	"github.com/jeranaias/streampane/internal/tasks"
)

var (
	flagConfig      string
	flagLogLevel    string
	flagExport      string
	flagNoAltScreen bool
	flagQuitOnDone  bool
)

var rootCmd = &cobra.Command{
	Use:   "streampane",
	Short: "Stream command output into a scrollable terminal pane",
	Long: `streampane shows streamed output in a scrollable pane. Lines are styled as
they complete: ANSI output is kept, markdown is rendered, and a reported
session cost ("$0.0123 session") is tracked in the footer.

Pipe output into streampane, or use one of the commands below.`,
	Example: `  make build 2>&1 | streampane
  streampane run "go test ./..." "go vet ./..."
  streampane follow /var/log/app.log
  streampane view README.md`,
	Args:          usageArgs(cobra.NoArgs),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPiped,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.streampane/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&flagExport, "export", "e", "", "write the transcript to this file on quit (.md and .json pick the format)")
	rootCmd.PersistentFlags().BoolVar(&flagNoAltScreen, "no-alt-screen", false, "draw inline instead of on the alternate screen")
	rootCmd.PersistentFlags().BoolVar(&flagQuitOnDone, "exit", false, "quit once every task has finished")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
}

// runPiped streams stdin when it is piped; otherwise it prints help.
func runPiped(cmd *cobra.Command, _ []string) error {
	if !StdinPiped() {
		return cmd.Help()
	}
	return startSession(sessionPlan{
		Command:    "streampane",
		Title:      "stdin",
		Tasks:      []*tasks.Task{tasks.NewStdinTask("stdin", cmd.InOrStdin())},
		QuitOnDone: flagQuitOnDone,
	})
}

// loadConfig reads --config (or the default file), then applies --log-level.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFromPath(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
		if err := cfg.Validate(); err != nil {
			return nil, &ConfigError{Err: err}
		}
	}
	return cfg, nil
}

// usageArgs marks positional argument errors as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
