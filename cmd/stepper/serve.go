package main

import (
	"github.com/aretw0/stepper/internal/cli"
	"github.com/aretw0/stepper/internal/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP playback server",
	Long: `Starts the session server, exposing playback control, share links,
server-sent view events and Prometheus metrics over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		noMetrics, _ := cmd.Flags().GetBool("no-metrics")
		return cli.RunServe(cli.ServeOptions{
			App: appOptions(cmd, func(c *config.Config) {
				if addr != "" {
					c.HTTP.Addr = addr
				}
				if noMetrics {
					c.HTTP.Metrics = false
				}
			}),
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default :8080)")
	serveCmd.Flags().Bool("no-metrics", false, "Do not expose /metrics")
}
