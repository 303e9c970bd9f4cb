package main

import (
	"github.com/spf13/cobra"
)

func watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the poll loop without the bot, alerting through alert.sink",
		Long: `Run the poll loop without a gateway connection. Alerts go to alert.destination
through the configured sink: a Discord channel ID, an email address, or the log.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a := newApp(cfg, log)

			sender, err := a.headlessSender()
			if err != nil {
				return err
			}
			if _, ok := a.destination.Get(); !ok {
				log.Warn("No alert destination configured, new codes will only be logged", "sink", cfg.Alert.Sink)
			}

			a.serveMetrics(ctx)
			return a.poller(a.dispatcher(sender)).Run(ctx)
		},
	}
}
