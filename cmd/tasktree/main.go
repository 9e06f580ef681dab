package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts appOptions

	cmd := &cobra.Command{
		Use:           "tasktree",
		Short:         "Folders, task lists and tasks in the terminal",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/tasktree/config.toml)")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database path, overrides db_path")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", `log file, "-" for stderr`)
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(treeCmd(&opts))
	cmd.AddCommand(exportCmd(&opts))
	cmd.AddCommand(importCmd(&opts))
	cmd.AddCommand(resetCmd(&opts))
	cmd.AddCommand(infoCmd(&opts))
	return cmd
}
