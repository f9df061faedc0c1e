package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "Canopy serves live component trees to any number of views",
	Long: `Canopy runs widgets: server-side component trees whose renders are fanned out
to every attached view (browsers over WebSocket, terminals, JSON lines or MCP agents).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (auto, text, json)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// globalFlags reads the persistent flags shared by every command.
func globalFlags(cmd *cobra.Command) (configPath, level, format string, debug bool) {
	configPath, _ = cmd.Flags().GetString("config")
	level, _ = cmd.Flags().GetString("log-level")
	format, _ = cmd.Flags().GetString("log-format")
	debug, _ = cmd.Flags().GetBool("debug")
	return configPath, level, format, debug
}
