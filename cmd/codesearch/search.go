package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var searchLimit int

func newSearchCmd(kind, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspacePath, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			query := args[1]

			svc, err := newService()
			if err != nil {
				return err
			}
			defer svc.Close(cmd.Context())

			results, err := svc.Search(context.Background(), kind, workspacePath, query, searchLimit)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Println("no results")
				return nil
			}
			for _, r := range results {
				fmt.Printf("%6.3f  %s\n", r.Score, r.RelativePath)
			}
			return nil
		},
	}
}

func init() {
	textCmd := newSearchCmd("text", "search-text [workspace-path] [query]", "Boolean full-text search over indexed file contents")
	filesCmd := newSearchCmd("files", "search-files [workspace-path] [pattern]", "Fuzzy filename search over indexed paths")
	directoryCmd := newSearchCmd("directory", "search-directory [workspace-path] [directory]", "List indexed files under a directory prefix")
	recencyCmd := newSearchCmd("recency", "search-recency [workspace-path] [query]", "Full-text search re-ranked toward recently modified files")
	similarityCmd := newSearchCmd("similarity", "search-similarity [workspace-path] [reference-path]", "Find files whose content tokens most overlap a reference file's")

	for _, c := range []*cobra.Command{textCmd, filesCmd, directoryCmd, recencyCmd, similarityCmd} {
		c.Flags().IntVar(&searchLimit, "limit", 20, "maximum results to return")
		rootCmd.AddCommand(c)
	}
}
