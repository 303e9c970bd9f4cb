package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shanehull/promowatch/internal/discord"
	"github.com/shanehull/promowatch/internal/notify"
)

func registerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register the slash commands with Discord and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.RequireToken(); err != nil {
				return err
			}
			a := newApp(cfg, log)

			session, err := discord.NewSession(cfg.Discord.Token)
			if err != nil {
				return err
			}
			router := a.router(a.dispatcher(notify.NewLogSender(log)))
			bot := discord.NewBot(session, discordConfig(), router, log)

			n, err := bot.RegisterCommands(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %d commands.\n", n)
			return nil
		},
	}
}
