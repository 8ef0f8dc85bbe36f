package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/streamwatch/internal/application"
	"github.com/bnema/streamwatch/internal/domain"
)

func newAccountCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the bot's reddit credentials",
	}

	cmd.AddCommand(
		newAccountSetCmd(app),
		newAccountListCmd(app),
		newAccountVerifyCmd(app),
		newAccountRemoveCmd(app),
	)

	return cmd
}

func newAccountSetCmd(app *app) *cobra.Command {
	var accountID string
	var command application.SetAccountCommand

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or update an account; secrets go to the secret store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			command.ID = resolveAccountID(app, accountID)
			if err := app.accounts.SetAccount(cmd.Context(), command); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "account %s saved\n", command.ID)
			return err
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID (default reddit.account)")
	cmd.Flags().StringVar(&command.UserName, "username", "", "Reddit user name of the bot")
	cmd.Flags().StringVar(&command.ClientID, "client-id", "", "Script app client ID")
	cmd.Flags().StringVar(&command.UserAgent, "user-agent", "", "User agent sent to reddit")
	cmd.Flags().StringVar(&command.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&command.ClientSecret, "client-secret", "", "Script app client secret")

	return cmd
}

func newAccountListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := app.accounts.List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, account := range accounts {
				state := "complete"
				if !account.Complete() {
					state = "incomplete"
				}
				_, _ = fmt.Fprintf(w, "%s\tu/%s\t%s\t%s\n", account.ID, account.UserName, account.ClientID, state)
			}
			return w.Flush()
		},
	}
}

func newAccountVerifyCmd(app *app) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Exchange the stored credentials for a token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id := resolveAccountID(app, accountID)

			var token domain.Token
			err := runVerifySpinner(cmd.Context(), cmd.ErrOrStderr(), fmt.Sprintf("Verifying account %s...", id), func(ctx context.Context) error {
				var err error
				token, err = app.accounts.Verify(ctx, id)
				return err
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "account %s verified (scope %s, token valid until %s)\n",
				id, token.Scope, token.ExpiresAt.UTC().Format(time.RFC3339))
			return err
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID (default reddit.account)")

	return cmd
}

func newAccountRemoveCmd(app *app) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Delete an account and its stored secrets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id := resolveAccountID(app, accountID)
			if err := app.accounts.Remove(cmd.Context(), id); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "account %s removed\n", id)
			return err
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func resolveAccountID(app *app, raw string) domain.AccountID {
	if raw != "" {
		return domain.AccountID(raw)
	}
	return app.accountID()
}
