package main

import (
	"github.com/aretw0/canopy/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [demo...]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes widgets to AI agents as MCP tools: list_widgets, get_model, get_markdown and
dispatch_event.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, level, format, debug := globalFlags(cmd)
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		demos := args
		if len(demos) == 0 {
			demos = cli.DemoNames()
		}
		return cli.ServeMCP(cmd.Context(), cli.MCPOptions{
			ConfigPath: configPath,
			Transport:  transport,
			Port:       port,
			Demos:      demos,
			LogLevel:   level,
			LogFormat:  format,
			Debug:      debug,
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport to use (stdio, sse)")
	mcpCmd.Flags().IntP("port", "p", 8080, "Port for SSE transport")
}
