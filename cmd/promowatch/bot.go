package main

import (
	"github.com/spf13/cobra"

	"github.com/shanehull/promowatch/internal/config"
	"github.com/shanehull/promowatch/internal/discord"
)

func botCommand() *cobra.Command {
	var register bool

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Discord bot and the poll loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.RequireToken(); err != nil {
				return err
			}
			ctx := cmd.Context()
			a := newApp(cfg, log)

			session, err := discord.NewSession(cfg.Discord.Token)
			if err != nil {
				return err
			}
			if cfg.Alert.Sink != config.SinkDiscord {
				log.Warn("Bot mode always alerts through Discord, ignoring alert.sink", "sink", cfg.Alert.Sink)
			}

			dispatcher := a.dispatcher(discord.NewChannelSender(session))
			bot := discord.NewBot(session, discordConfig(), a.router(dispatcher), log)

			if err := bot.Open(ctx); err != nil {
				return err
			}
			defer func() {
				if err := bot.Close(); err != nil {
					log.Warn("Failed to close discord session", "error", err)
				}
			}()

			if register {
				if _, err := bot.RegisterCommands(ctx); err != nil {
					return err
				}
			}

			a.serveMetrics(ctx)
			return a.poller(dispatcher).Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&register, "register", false, "register slash commands before starting")
	return cmd
}

func discordConfig() discord.Config {
	return discord.Config{
		AppID:     cfg.Discord.AppID,
		GuildID:   cfg.Discord.GuildID,
		SourceURL: cfg.Source.URL,
	}
}
