package main

import (
	"github.com/aretw0/canopy/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [demo...]",
	Short: "Serve widgets over HTTP and WebSocket",
	Long: `Mounts the named demo widgets (all of them by default) and serves them over HTTP.
Browsers attach at /widgets/{id}/ws; the model is also readable at /widgets/{id}/model.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, level, format, debug := globalFlags(cmd)
		addr, _ := cmd.Flags().GetString("addr")
		webModules, _ := cmd.Flags().GetString("web-modules")
		metrics, _ := cmd.Flags().GetBool("metrics")

		demos := args
		if len(demos) == 0 {
			demos = cli.DemoNames()
		}
		return cli.Serve(cmd.Context(), cli.ServeOptions{
			ConfigPath:    configPath,
			Addr:          addr,
			WebModulesDir: webModules,
			Metrics:       metrics,
			Demos:         demos,
			LogLevel:      level,
			LogFormat:     format,
			Debug:         debug,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default from config, :8080)")
	serveCmd.Flags().String("web-modules", "", "Directory of web modules to serve to views")
	serveCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics at /metrics")
}
