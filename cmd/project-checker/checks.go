package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taigrr/project-checker/internal/checks"
)

func newChecksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checks",
		Short: "List the available checks in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, c := range checks.Default(checks.Deps{}) {
				fmt.Fprintf(w, "%s\t%s\n", c.Name, c.Description)
			}
			return w.Flush()
		},
	}
}
