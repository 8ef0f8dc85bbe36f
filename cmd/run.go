package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/streamwatch/internal/application"
	"github.com/bnema/streamwatch/internal/logutil"
	"github.com/bnema/streamwatch/internal/version"
)

func newRunCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, closer, err := logutil.FromViper(app.cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info().
				Str("version", version.Info()).
				Str("account", string(app.accountID())).
				Str("data_dir", app.store.Dir()).
				Msg("streamwatch_starting")

			runner := application.NewRunner(app.store, app.sessionFactory(), application.RunnerOptions{
				Interval:     app.cfg.GetDuration("loop.interval"),
				RestartDelay: app.cfg.GetDuration("loop.restart_delay"),
				Logger:       logger,
			})
			if err := runner.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("streamwatch_failed")
				return err
			}
			logger.Info().Msg("streamwatch_stopped")
			return nil
		},
	}
}
