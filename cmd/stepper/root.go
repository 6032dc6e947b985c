package main

import (
	"fmt"
	"os"

	"github.com/aretw0/stepper/internal/cli"
	"github.com/aretw0/stepper/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stepper",
	Short: "Stepper plays algorithm traces step by step",
	Long: `Stepper compiles an algorithm run into a trace of snapshots ahead of time
and plays it back under your control: play, pause, step, seek, reset and share
the exact position as a link.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./stepper.yaml when present)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().String("cache", "", "Trace cache backend: none, memory, file or redis")
	rootCmd.PersistentFlags().String("share-base", "", "Page share links point to")
}

// appOptions maps the persistent flags onto the config, flags winning over the file.
func appOptions(cmd *cobra.Command, extra func(*config.Config)) cli.AppOptions {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	cache, _ := cmd.Flags().GetString("cache")
	shareBase, _ := cmd.Flags().GetString("share-base")

	return cli.AppOptions{
		ConfigPath: path,
		Debug:      debug,
		Override: func(c *config.Config) {
			if cache != "" {
				c.Cache.Backend = cache
			}
			if shareBase != "" {
				c.Share.BaseURL = shareBase
			}
			if extra != nil {
				extra(c)
			}
		},
	}
}
