package main

import (
	"os"

	"github.com/aretw0/stepper/internal/cli"
	"github.com/spf13/cobra"
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Encode or decode a share link",
	Long: `Without --decode, builds a link from the given fields.
With --decode, prints the playback state a link or fragment carries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.ShareOptions{App: appOptions(cmd, nil)}
		opts.Decode, _ = cmd.Flags().GetString("decode")
		opts.Algorithm, _ = cmd.Flags().GetString("algorithm")
		opts.Array, _ = cmd.Flags().GetIntSlice("array")
		opts.Step, _ = cmd.Flags().GetInt("step")
		opts.Speed, _ = cmd.Flags().GetInt("speed")
		opts.Target, _ = cmd.Flags().GetInt("target")
		opts.HasTarget = cmd.Flags().Changed("target")
		return cli.RunShare(os.Stdout, opts)
	},
}

func init() {
	rootCmd.AddCommand(shareCmd)
	shareCmd.Flags().String("decode", "", "Link or fragment to decode")
	shareCmd.Flags().String("algorithm", "", "Algorithm name")
	shareCmd.Flags().IntSlice("array", nil, "Input array, e.g. 5,2,9")
	shareCmd.Flags().Int("step", 0, "Step index")
	shareCmd.Flags().Int("speed", 25, "Speed, 0 to 100")
	shareCmd.Flags().Int("target", 0, "Search target")
}
