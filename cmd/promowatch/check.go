package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shanehull/promowatch/internal/notify"
)

func checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run one poll cycle and print what the detector saw",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := newApp(cfg, log)
			a.destination.Clear()

			report, err := a.poller(a.dispatcher(notify.NewLogSender(log))).RunCycle(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			notify.ReportCodes(out, report.Result, a.scraper.URL())
			fmt.Fprintln(out)
			if code, ok := a.tracker.LastSeen(); ok {
				fmt.Fprintf(out, "Detector baseline: %s\n", code)
			} else {
				fmt.Fprintln(out, "Detector baseline: unset (no time-limited codes found)")
			}
			return nil
		},
	}
}
