package main

import (
	"github.com/aretw0/stepper/internal/cli"
	"github.com/aretw0/stepper/internal/config"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [algorithm]",
	Short: "Play an algorithm trace in the terminal",
	Long: `Opens an interactive player for one algorithm run.

Keys:
  p      play / pause
  ]  [   step forward / back (while paused)
  r      reset to the first step
  + -    faster / slower
  c      copy a share link
  q      quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.PlayOptions{}
		if len(args) > 0 {
			opts.Algorithm = args[0]
		}
		opts.Params, _ = cmd.Flags().GetString("params")
		opts.Set, _ = cmd.Flags().GetStringArray("set")
		opts.Link, _ = cmd.Flags().GetString("link")
		opts.Autoplay, _ = cmd.Flags().GetBool("autoplay")
		opts.NoChart, _ = cmd.Flags().GetBool("no-chart")

		var speed *int
		if cmd.Flags().Changed("speed") {
			v, _ := cmd.Flags().GetInt("speed")
			speed = &v
		}
		opts.App = appOptions(cmd, func(c *config.Config) {
			if speed != nil {
				c.Playback.Speed = *speed
			}
		})
		return cli.RunPlay(opts)
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().String("params", "", `Generation parameters as a JSON object, e.g. {"array":[5,2,9]}`)
	playCmd.Flags().StringArray("set", nil, "Generation parameter as key=value, repeatable (e.g. --set array=5,2,9)")
	playCmd.Flags().String("link", "", "Share link or fragment to restore")
	playCmd.Flags().Int("speed", 0, "Initial speed, 0 to 100")
	playCmd.Flags().Bool("autoplay", false, "Start playing immediately")
	playCmd.Flags().Bool("no-chart", false, "Hide the line chart")
}
