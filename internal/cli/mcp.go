package cli

import (
	"context"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/internal/logging"
	mcpAdapter "github.com/aretw0/stepper/pkg/adapters/mcp"
)

// MCPOptions contains the configuration for the mcp command.
type MCPOptions struct {
	App AppOptions
}

// RunMCP serves the playback tools over stdio or SSE, per mcp.transport.
func RunMCP(opts MCPOptions) error {
	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	app, err := NewApp(sigCtx, opts.App)
	if err != nil {
		return err
	}
	defer app.Close()

	logger := app.Logger
	if app.Config.MCP.Transport == "stdio" && !opts.App.Debug {
		// Stdout carries the protocol.
		logger = logging.NewNop()
	}

	srv := mcpAdapter.NewServer(app.Sessions, stepper.Version,
		mcpAdapter.WithLogger(logger),
		mcpAdapter.WithShareBase(app.Config.Share.BaseURL),
	)
	if app.Config.MCP.Transport == "sse" {
		return srv.ServeSSE(sigCtx, app.Config.MCP.Addr, app.Config.MCP.BaseURL)
	}
	return handleExecutionError(srv.ServeStdio())
}
