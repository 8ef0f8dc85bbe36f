package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newStoreCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the bot's state documents",
	}

	cmd.AddCommand(newStoreInitCmd(app))

	return cmd
}

func newStoreInitCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create missing state documents with empty defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			created, err := app.store.Init(cmd.Context())
			for _, name := range created {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", filepath.Join(app.store.Dir(), name))
			}
			if err != nil {
				return fmt.Errorf("initialize store: %w", err)
			}
			if len(created) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "all documents present in %s\n", app.store.Dir())
			}
			return nil
		},
	}
}
