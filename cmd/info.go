package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kubecall/kubecall/internal/client"
)

// newInfoCmd creates the command showing the schema metadata of one action.
func newInfoCmd() *cobra.Command {
	var (
		kind    string
		action  string
		version string
	)

	cmd := &cobra.Command{
		Use:   "info --kind KIND --action ACTION",
		Short: "Show the declared parameter and response schemas of an action",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			info, err := c.Info(client.Call{Kind: kind, Action: action, Version: version})
			if err != nil {
				return err
			}
			return printJSON(cmd, info)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "resource kind")
	cmd.Flags().StringVar(&action, "action", "", "action verb")
	cmd.Flags().StringVar(&version, "version", "", "exact API version; default is the preferred version")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("action")
	return cmd
}

// splitGroupVersion parses an --extend value of the form group/version.
func splitGroupVersion(gv string) (group, version string, err error) {
	group, version, ok := strings.Cut(gv, "/")
	if !ok || group == "" || version == "" {
		return "", "", fmt.Errorf("invalid --extend value %q, expected group/version", gv)
	}
	return group, version, nil
}
