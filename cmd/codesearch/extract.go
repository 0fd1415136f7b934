package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [workspace-path] [file-path]",
	Short: "Show the types and methods the TypeExtractor recorded for an indexed file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		workspacePath, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		filePath, err := filepath.Abs(args[1])
		if err != nil {
			return err
		}

		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close(cmd.Context())

		types, methods, err := svc.ExtractTypes(context.Background(), workspacePath, filePath)
		if err != nil {
			return err
		}

		if len(types) == 0 && len(methods) == 0 {
			fmt.Println("no extracted types or methods for this file")
			return nil
		}
		for _, t := range types {
			fmt.Printf("type   %-8s %-30s %d:%d\n", t.Kind, t.Name, t.Line, t.Column)
		}
		for _, m := range methods {
			fmt.Printf("method %-8s %-30s %d:%d\n", m.Kind, m.Name, m.Line, m.Column)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
