package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shanehull/promowatch/internal/commands"
	"github.com/shanehull/promowatch/internal/config"
	"github.com/shanehull/promowatch/internal/discord"
	"github.com/shanehull/promowatch/internal/history"
	"github.com/shanehull/promowatch/internal/logger"
	"github.com/shanehull/promowatch/internal/metrics"
	"github.com/shanehull/promowatch/internal/notify"
	"github.com/shanehull/promowatch/internal/poll"
	"github.com/shanehull/promowatch/internal/scrape"
)

// app holds the components shared by the long-running commands.
type app struct {
	cfg         *config.Config
	log         logger.Interface
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	scraper     *scrape.Scraper
	tracker     *history.Tracker
	destination *notify.Destination
}

func newApp(cfg *config.Config, log logger.Interface) *app {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &app{
		cfg:      cfg,
		log:      log,
		registry: reg,
		metrics:  metrics.New(reg),
		scraper: scrape.NewScraper(
			cfg.Source.URL,
			scrape.NewHTTPFetcher(cfg.Source.Timeout),
			scrape.NewHeuristicExtractor(),
		),
		tracker:     history.NewTracker(log.WithComponent("history")),
		destination: notify.NewDestination(cfg.Alert.Destination),
	}
}

func (a *app) dispatcher(sender notify.Sender) *notify.Dispatcher {
	return notify.NewDispatcher(sender, a.destination, notify.NewAlertRenderer(a.cfg.Source.URL), a.log.WithComponent("notify"))
}

func (a *app) poller(d *notify.Dispatcher) *poll.Poller {
	return poll.New(a.scraper, a.tracker, d,
		poll.WithInterval(a.cfg.Poll.Interval),
		poll.WithLogger(a.log),
		poll.WithMetrics(a.metrics),
	)
}

func (a *app) router(d *notify.Dispatcher) *commands.Router {
	r := commands.NewRouter(a.log, a.metrics)
	commands.RegisterBuiltins(r, commands.Deps{
		Destination: a.destination,
		Dispatcher:  d,
		Scraper:     a.scraper,
		Tracker:     a.tracker,
	})
	return r
}

// headlessSender picks the alert sink for commands that run without the gateway connection.
func (a *app) headlessSender() (notify.Sender, error) {
	switch a.cfg.Alert.Sink {
	case config.SinkEmail:
		return notify.NewEmailSender(notify.EmailConfig{
			SMTPServer: a.cfg.SMTP.Server,
			SMTPPort:   a.cfg.SMTP.Port,
			SMTPUser:   a.cfg.SMTP.User,
			SMTPPass:   a.cfg.SMTP.Pass,
			FromEmail:  a.cfg.SMTP.FromAddress(),
		}, a.log.WithComponent("email")), nil
	case config.SinkDiscord:
		if err := a.cfg.RequireToken(); err != nil {
			return nil, err
		}
		s, err := discord.NewSession(a.cfg.Discord.Token)
		if err != nil {
			return nil, err
		}
		return discord.NewChannelSender(s), nil
	default:
		return notify.NewLogSender(a.log.WithComponent("alerts")), nil
	}
}

// serveMetrics runs the metrics server in the background when metrics.addr is set.
func (a *app) serveMetrics(ctx context.Context) {
	if a.cfg.Metrics.Addr == "" {
		return
	}
	srv := metrics.NewServer(a.cfg.Metrics.Addr, a.registry, a.status, a.log.WithComponent("metrics"))
	go func() {
		if err := srv.Run(ctx); err != nil {
			a.log.Error("Metrics server stopped", "error", err)
		}
	}()
}

func (a *app) status() metrics.Status {
	code, _ := a.tracker.LastSeen()
	_, set := a.destination.Get()
	return metrics.Status{LastSeenCode: code, DestinationSet: set}
}
