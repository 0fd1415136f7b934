package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Sweep every indexed workspace for stale writer locks",
	Long: `Runs the tiered stale-writer-lock sweep across every workspace this
service has ever indexed: removes test-artifact locks immediately, removes
workspace locks past their minimum age, and reports (without removing)
locks old enough to suggest a stuck writer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close(cmd.Context())

		report, err := svc.Doctor()
		if err != nil {
			return err
		}

		fmt.Printf("test artifacts removed:  %d\n", report.TestArtifactsRemoved)
		fmt.Printf("workspace locks removed:  %d\n", report.WorkspaceLocksRemoved)
		fmt.Printf("stuck locks found:        %d\n", report.StuckLocksFound)
		for _, rec := range report.Records {
			status := rec.Reason
			if rec.Removed {
				status = "removed: " + status
			}
			fmt.Printf("  %-10s age=%-12s %s\n", rec.Workspace, rec.Age, status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
