// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/streampane/internal/config"
	"github.com/jeranaias/streampane/internal/util"
)

var (
	flagConfigPath bool
	flagForce      bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as TOML",
	Long: `Print the configuration streampane would run with: the config file merged
over the defaults, with STREAMPANE_* environment overrides applied.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: runConfig,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  usageArgs(cobra.NoArgs),
	RunE:  runConfigInit,
}

func init() {
	configCmd.Flags().BoolVar(&flagConfigPath, "path", false, "print the config file path and exit")
	configInitCmd.Flags().BoolVar(&flagForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func configFilePath() (string, error) {
	if flagConfig != "" {
		return util.ExpandHome(flagConfig), nil
	}
	return config.ConfigPath()
}

func runConfig(cmd *cobra.Command, _ []string) error {
	if flagConfigPath {
		path, err := configFilePath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := cfg.Encode()
	if err != nil {
		return &CommandError{Command: "config", Action: "encode", Err: err}
	}
	fmt.Fprint(cmd.OutOrStdout(), data)
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !flagForce {
		return &CommandError{Command: "config", Action: "init", Err: fmt.Errorf("%s already exists (use --force to overwrite)", path)}
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &CommandError{Command: "config", Action: "init", Err: err}
	}

	if err := config.SaveTOML(config.Default(), path); err != nil {
		return &CommandError{Command: "config", Action: "init", Err: err}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
