package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/signcast/signcast/internal/logging"
	"github.com/signcast/signcast/internal/updater"
)

// updateRepository is the GitHub release source for self-updates.
const updateRepository = "signcast/signcast"

// CreateUpdateCmd creates the update command group.
func CreateUpdateCmd() *cobra.Command {
	var prerelease bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check for and apply binary updates",
	}
	cmd.PersistentFlags().BoolVar(&prerelease, "prerelease", false, "Include prerelease versions")

	newService := func() *updater.Service {
		logging.Initialize(logging.Config{Level: "info", Format: "text"})
		svc, err := updater.NewService(updateRepository, prerelease)
		if err != nil {
			fmt.Fprintf(os.Stderr, "updater: %v\n", err)
			os.Exit(1)
		}
		if !svc.Enabled() {
			fmt.Fprintf(os.Stderr, "self-update disabled: %s\n", svc.DisabledReason())
			os.Exit(1)
		}
		return svc
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check whether a newer release is available",
		Run: func(_ *cobra.Command, _ []string) {
			info, err := newService().Check(context.Background())
			if err != nil {
				fmt.Fprintf(os.Stderr, "check failed: %v\n", err)
				os.Exit(1)
			}
			if info.UpdateAvailable {
				fmt.Printf("update available: %s -> %s\n%s\n", info.CurrentVersion, info.LatestVersion, info.ReleaseURL)
			} else {
				fmt.Printf("up to date (%s)\n", info.CurrentVersion)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "apply",
		Short: "Download and apply the latest release",
		Run: func(_ *cobra.Command, _ []string) {
			if err := newService().Apply(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "update failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("update applied")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Restore the previously backed up binary",
		Run: func(_ *cobra.Command, _ []string) {
			if err := newService().Rollback(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "rollback failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("rollback complete")
		},
	})

	return cmd
}
