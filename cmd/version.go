package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/streamwatch/internal/version"
)

func newVersionCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := version.Info()
			if full {
				out = version.Full()
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Include Go version and platform")

	return cmd
}
