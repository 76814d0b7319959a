package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newExploreCmd creates the command listing the callable kinds and actions.
func newExploreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explore [kind]",
		Short: "List the callable kinds and their actions",
		Long: `Explore prints the action directory of the registry: every kind, and for
each kind the action verbs it supports at their preferred version. With a
kind argument the listing is restricted to that kind.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			kind := ""
			if len(args) == 1 {
				kind = args[0]
			}

			entries := c.Explore(kind)
			if len(entries) == 0 {
				return fmt.Errorf("no actions registered for kind %q", kind)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tACTION\tVERSION\tSUMMARY")
			for _, entry := range entries {
				for _, action := range entry.Actions {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.Kind, action.Verb, action.Version, action.Summary)
				}
			}
			return w.Flush()
		},
	}
}
