package main

import (
	"errors"

	"github.com/aretw0/canopy/internal/cli"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage widget snapshots stored in redis",
	Long:  `List, inspect, and remove the widget snapshots mirrored to the configured redis store.`,
}

var snapshotLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ListSnapshots(cmd.Context(), snapshotOptions(cmd), cmd.OutOrStdout())
	},
}

var snapshotInspectCmd = &cobra.Command{
	Use:   "inspect <widget-id>",
	Short: "Print the stored snapshot of a widget",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.InspectSnapshot(cmd.Context(), snapshotOptions(cmd), args[0], cmd.OutOrStdout())
	},
}

var snapshotRmCmd = &cobra.Command{
	Use:   "rm <widget-id>...",
	Short: "Remove one or more snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var errs []error
		for _, id := range args {
			errs = append(errs, cli.RemoveSnapshot(cmd.Context(), snapshotOptions(cmd), id, cmd.OutOrStdout()))
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.PersistentFlags().String("redis", "", "Redis address (default from config)")
	snapshotCmd.AddCommand(snapshotLsCmd)
	snapshotCmd.AddCommand(snapshotInspectCmd)
	snapshotCmd.AddCommand(snapshotRmCmd)
}

func snapshotOptions(cmd *cobra.Command) cli.SnapshotOptions {
	configPath, _, _, _ := globalFlags(cmd)
	addr, _ := cmd.Flags().GetString("redis")
	return cli.SnapshotOptions{ConfigPath: configPath, RedisAddr: addr}
}
