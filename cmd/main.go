package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "userapi",
		Short:         "CRUD HTTP service for users",
		SilenceUsage:  true,
		SilenceErrors: true,
		// without a subcommand the service is started
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (defaults to $CONFIG_PATH, env only when empty)")

	root.AddCommand(newServeCmd(&configPath), newMigrateCmd(&configPath))
	return root
}
