package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	statusadapter "github.com/bnema/streamwatch/internal/adapters/render/status"
	"github.com/bnema/streamwatch/internal/application"
	"github.com/bnema/streamwatch/internal/domain"
)

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool
	var showAddresses bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show subscribers, roles and monitored discussions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := application.LoadStatus(cmd.Context(), app.store)
			if err != nil {
				if errors.Is(err, domain.ErrStoreDocumentMissing) {
					return fmt.Errorf("%w (run `streamwatch store init` to create it)", err)
				}
				return err
			}
			return writeStatusOutput(cmd, app, status, showAddresses, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print status as JSON")
	cmd.Flags().BoolVar(&showAddresses, "addresses", false, "Show live discussion socket addresses")

	return cmd
}

func writeStatusOutput(cmd *cobra.Command, app *app, status application.Status, showAddresses bool, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	rendered, err := app.statusRenderer(status, statusadapter.RenderOptions{ShowAddresses: showAddresses})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
