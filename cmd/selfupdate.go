package cmd

import (
	"fmt"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// updateRepo is the GitHub repository releases are published to.
const updateRepo = "kubecall/kubecall"

// newSelfUpdateCmd creates the command updating the binary to the latest
// released version.
func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update kubecall to the latest version",
		Long:  `Checks GitHub releases for a newer version of kubecall and replaces the current binary with it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			version := rootCmd.Version
			if version == "" || version == "dev" {
				return fmt.Errorf("cannot self-update a development version")
			}

			release, err := selfupdate.UpdateSelf(cmd.Context(), version, selfupdate.ParseSlug(updateRepo))
			if err != nil {
				return fmt.Errorf("self-update failed: %w", err)
			}
			if release.Version() == version {
				fmt.Fprintf(cmd.OutOrStdout(), "kubecall is already at the latest version %s\n", version)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated kubecall to version %s\n", release.Version())
			return nil
		},
	}
}
