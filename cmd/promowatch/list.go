package main

import (
	"github.com/spf13/cobra"

	"github.com/shanehull/promowatch/internal/notify"
)

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Scrape the source page once and print the codes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := newApp(cfg, log)

			res, err := a.scraper.Scrape(cmd.Context())
			if err != nil {
				return err
			}

			notify.ReportCodes(cmd.OutOrStdout(), res, a.scraper.URL())
			return nil
		},
	}
}
