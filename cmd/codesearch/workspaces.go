package main

import (
	"fmt"
	"sort"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/atomicobject/codesearch/pkg/mcpserver"
	"github.com/atomicobject/codesearch/pkg/workspace"
)

var workspacesRemove bool

var workspacesCmd = &cobra.Command{
	Use:     "workspaces",
	Aliases: []string{"ws"},
	Short:   "List every workspace this service has ever indexed",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close(cmd.Context())

		entries, err := svc.Workspaces()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("no workspaces indexed yet")
			return nil
		}

		sort.Slice(entries, func(i, j int) bool {
			return entries[i].LastUsed.After(entries[j].LastUsed)
		})

		if !workspacesRemove {
			for _, e := range entries {
				fmt.Printf("%s  (last used %s)\n", e.OriginalPath, e.LastUsed.Format("2006-01-02 15:04:05"))
			}
			return nil
		}

		return pickAndRemoveWorkspace(svc, entries)
	},
}

// pickAndRemoveWorkspace offers an interactive fuzzy-finder picker over
// indexed workspaces, grounded on the teacher's note_picker.go.
func pickAndRemoveWorkspace(svc *mcpserver.Service, entries []workspace.Entry) error {
	idx, err := fuzzyfinder.Find(entries, func(i int) string { return entries[i].OriginalPath })
	if err != nil {
		return err
	}
	chosen := entries[idx]
	if err := svc.RemoveWorkspace(chosen.OriginalPath); err != nil {
		return err
	}
	fmt.Printf("removed %s from the registry\n", chosen.OriginalPath)
	return nil
}

func init() {
	workspacesCmd.Flags().BoolVar(&workspacesRemove, "remove", false, "interactively pick a workspace to remove from the registry")
	rootCmd.AddCommand(workspacesCmd)
}
