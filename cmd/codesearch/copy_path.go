package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var copyPathCmd = &cobra.Command{
	Use:   "copy-path [workspace-path] [result-path]",
	Short: "Copy a search result's absolute path to the clipboard",
	Args:  cobra.ExactArgs(2),
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

		results, err := svc.Search(context.Background(), "files", workspacePath, args[1], 1)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return fmt.Errorf("no indexed file matches %q", args[1])
		}

		if err := clipboard.WriteAll(results[0].Path); err != nil {
			return err
		}
		fmt.Println(results[0].Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(copyPathCmd)
}
