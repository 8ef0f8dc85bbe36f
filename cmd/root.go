package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var configFile string
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "streamwatch",
		Short:         "Reddit live stream notifier bot",
		Long:          "streamwatch announces a publisher's live streams to subscribers, answers chat commands in monitored live discussions and threads, and keeps the push connections to those discussions alive.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			wired, err := wireApp(cfg)
			if err != nil {
				return err
			}
			*app = *wired
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $HOME/.streamwatch/config.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newAccountCmd(app),
		newRunCmd(app),
		newStatusCmd(app),
		newStoreCmd(app),
	)

	return rootCmd
}
