package main

import (
	"os"

	"github.com/aretw0/stepper/internal/cli"
	"github.com/aretw0/stepper/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available algorithms",
	RunE: func(cmd *cobra.Command, args []string) error {
		tui.PrintBanner(os.Stdout)
		return cli.ListAlgorithms(os.Stdout, appOptions(cmd, nil))
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
