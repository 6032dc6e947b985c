package main

import (
	"os"

	"github.com/aretw0/stepper/internal/cli"
	"github.com/spf13/cobra"
)

var traceCmd = &cobra.Command{
	Use:   "trace <algorithm>",
	Short: "Print the compiled trace of an algorithm run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, _ := cmd.Flags().GetString("params")
		set, _ := cmd.Flags().GetStringArray("set")
		format, _ := cmd.Flags().GetString("format")
		return cli.RunTrace(os.Stdout, cli.TraceOptions{
			App:       appOptions(cmd, nil),
			Algorithm: args[0],
			Params:    params,
			Set:       set,
			Format:    format,
		})
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.Flags().String("params", "", "Generation parameters as a JSON object")
	traceCmd.Flags().StringArray("set", nil, "Generation parameter as key=value, repeatable")
	traceCmd.Flags().StringP("format", "f", "json", "Output format: json or text")
}
