package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:     "index [workspace-path]",
	Aliases: []string{"idx"},
	Short:   "Index a workspace",
	Long: `Runs a full indexing pass over the given workspace. The ChangePipeline
the service starts for it is stopped again when this command exits, so later
edits are picked up by another index run or by a running 'codesearch mcp'
server. Safe to run repeatedly; an already-indexed workspace is just re-scanned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workspacePath := "."
		if len(args) > 0 {
			workspacePath = args[0]
		}
		abs, err := filepath.Abs(workspacePath)
		if err != nil {
			return err
		}

		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close(cmd.Context())

		result, err := svc.IndexWorkspace(context.Background(), abs)
		if err != nil {
			return err
		}

		fmt.Printf("indexed %d file(s), skipped %d, %d error(s), in %s\n",
			result.IndexedCount, result.SkippedCount, result.ErrorCount, result.Duration)
		if !result.Success {
			log.Printf("indexing completed with errors for %s", abs)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
