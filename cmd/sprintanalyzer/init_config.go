package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sprintanalyzer/internal/config"
)

func newInitConfigCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a config.toml with the default settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return codeError(1, "%s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
				return codeError(1, "write config: %s", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "配置已写入: %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "覆盖已存在的文件")

	return cmd
}
