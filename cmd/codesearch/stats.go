package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [workspace-path]",
	Short: "Show document count, size on disk, and health for a workspace's index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workspacePath, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close(cmd.Context())

		stats, health, err := svc.Statistics(context.Background(), workspacePath)
		if err != nil {
			return err
		}

		fmt.Printf("health:   %s\n", health)
		fmt.Printf("documents: %d\n", stats.DocumentCount)
		fmt.Printf("size:      %s\n", stats.HumanSize)
		if len(stats.ByExtension) > 0 {
			fmt.Println("by extension:")
			for ext, count := range stats.ByExtension {
				fmt.Printf("  %-10s %d\n", ext, count)
			}
		}
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health [workspace-path]",
	Short: "Cheap liveness check for a workspace's index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workspacePath, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close(cmd.Context())

		_, health, err := svc.Statistics(context.Background(), workspacePath)
		if err != nil {
			return err
		}
		fmt.Println(health)
		return nil
	},
}

var repairCmd = &cobra.Command{
	Use:   "repair [workspace-path]",
	Short: "Back up and validate a workspace's index, rebuilding it if validation fails",
	Long: `Copies the workspace's index directory aside, validates the segment file,
and rebuilds it from scratch if validation fails. A rebuilt index starts
empty; run 'codesearch index' again afterward.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workspacePath, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close(cmd.Context())

		report, err := svc.Repair(workspacePath)
		if err != nil {
			return err
		}

		fmt.Printf("backup:    %s\n", report.BackupPath)
		fmt.Printf("validated: %t\n", report.Validated)
		fmt.Printf("rebuilt:   %t\n", report.Rebuilt)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(repairCmd)
}
