package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/venice-mcp/internal/mcp"
)

// newToolsCmd lists the tool table. It needs no API key.
func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the Venice tools this server exposes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TOOL\tMETHOD\tPATH")
			for _, ct := range mcp.Catalog() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", ct.Name, ct.Method, ct.Path)
			}
			fmt.Fprintln(w, "venice_get_version\t-\t(local)")
			return w.Flush()
		},
	}
}
