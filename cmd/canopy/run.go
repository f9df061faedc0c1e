package main

import (
	"github.com/aretw0/canopy/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [demo]",
	Short: "Run a widget in the terminal",
	Long: `Runs one demo widget with the terminal as its only view.
With --json, stdin and stdout carry the view protocol as JSON lines instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, level, format, debug := globalFlags(cmd)
		jsonMode, _ := cmd.Flags().GetBool("json")
		width, _ := cmd.Flags().GetInt("width")

		demo := "counter"
		if len(args) > 0 {
			demo = args[0]
		}
		return cli.Run(cmd.Context(), cli.RunOptions{
			ConfigPath: configPath,
			Demo:       demo,
			JSON:       jsonMode,
			Width:      width,
			LogLevel:   level,
			LogFormat:  format,
			Debug:      debug,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().Int("width", 80, "Wrap rendered markdown at this width (0 disables)")
}
