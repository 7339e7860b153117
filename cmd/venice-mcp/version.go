package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/venice-mcp/internal/config"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "venice-mcp version %s\n", config.GetFullVersion())
			return nil
		},
	}
}
