package main

import (
	"github.com/aretw0/stepper/internal/cli"
	"github.com/aretw0/stepper/internal/config"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes playback sessions as MCP tools so agents can create sessions,
step through traces and hand out share links.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		return cli.RunMCP(cli.MCPOptions{
			App: appOptions(cmd, func(c *config.Config) {
				if transport != "" {
					c.MCP.Transport = transport
				}
				if addr != "" {
					c.MCP.Addr = addr
				}
			}),
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", "", "Address to listen on (only for SSE)")
}
