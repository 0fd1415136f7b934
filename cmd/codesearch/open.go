package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open [workspace-path] [result-path]",
	Short: "Open a search result in the OS default application for its file type",
	Long: `Runs search_files against the workspace for result-path and opens the
best match with the operating system's default handler for the file, the
way the teacher opens a note via its vault URI scheme.`,
	Args: cobra.ExactArgs(2),
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
		return open.Run(results[0].Path)
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
