package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/shanehull/promowatch/internal/notify"
	"github.com/shanehull/promowatch/internal/types"
)

// Command names.
const (
	SetChannel = "setchannel"
	TestAlert  = "testalert"
	ListCodes  = "listcodes"
	Status     = "status"
)

// Scraper runs one fetch and extraction.
type Scraper interface {
	Scrape(ctx context.Context) (types.ExtractionResult, error)
}

// AlertDispatcher sends one alert to the current destination.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, ev types.NewCodeEvent) error
}

// LastSeener exposes the detector baseline.
type LastSeener interface {
	LastSeen() (string, bool)
}

// Deps are the shared handles the built-in commands act on.
type Deps struct {
	Destination *notify.Destination
	Dispatcher  AlertDispatcher
	Scraper     Scraper
	Tracker     LastSeener
}

type builtins struct {
	Deps
}

// RegisterBuiltins adds setchannel, testalert, listcodes and status to r.
func RegisterBuiltins(r *Router, deps Deps) {
	b := &builtins{Deps: deps}

	r.Register(Definition{
		Name:        SetChannel,
		Description: "Sets this channel as the promo code alert channel.",
	}, b.setChannel)
	r.Register(Definition{
		Name:        TestAlert,
		Description: "Sends a test promo alert to the configured channel.",
	}, b.testAlert)
	r.Register(Definition{
		Name:        ListCodes,
		Description: "Lists the promo codes currently on the source page.",
		Deferred:    true,
	}, b.listCodes)
	r.Register(Definition{
		Name:        Status,
		Description: "Shows the last seen code and the alert channel.",
	}, b.status)
}

func (b *builtins) setChannel(_ context.Context, inv Invocation) (Reply, error) {
	if inv.ChannelID == "" {
		return Reply{}, &CommandError{Message: "This command must be used in a channel."}
	}
	b.Destination.Set(inv.ChannelID)
	return Reply{
		Content:   fmt.Sprintf("✅ This channel is now set for %s promo code alerts!", notify.GameName),
		Ephemeral: true,
	}, nil
}

func (b *builtins) testAlert(ctx context.Context, _ Invocation) (Reply, error) {
	if _, ok := b.Destination.Get(); !ok {
		return Reply{}, &CommandError{Message: "No alert channel set. Use /setchannel first."}
	}

	ev := types.NewCodeEvent{Code: "TEST", Test: true}
	if err := b.Dispatcher.Dispatch(ctx, ev); err != nil {
		return Reply{}, &CommandError{Message: "Test alert failed, check the bot can post in the alert channel.", Err: err}
	}
	return Reply{Content: "Test alert sent!", Ephemeral: true}, nil
}

func (b *builtins) listCodes(ctx context.Context, _ Invocation) (Reply, error) {
	res, err := b.Scraper.Scrape(ctx)
	if err != nil {
		return Reply{}, &CommandError{Message: "Could not reach the promo code page right now, try again later.", Err: err}
	}
	return Reply{Content: summarize(res), Codes: &res}, nil
}

func (b *builtins) status(_ context.Context, _ Invocation) (Reply, error) {
	var sb strings.Builder
	if code, ok := b.Tracker.LastSeen(); ok {
		fmt.Fprintf(&sb, "Newest time-limited code: **%s**\n", code)
	} else {
		sb.WriteString("No time-limited code seen yet.\n")
	}
	if id, ok := b.Destination.Get(); ok {
		fmt.Fprintf(&sb, "Alert channel: <#%s>", id)
	} else {
		sb.WriteString("Alert channel: not set. Use /setchannel.")
	}
	return Reply{Content: sb.String(), Ephemeral: true}, nil
}

// summarize is the plain text form of a code listing.
func summarize(res types.ExtractionResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Last checked/updated: **%s**\n", res.UpdateLabel)

	sb.WriteString("Time-limited codes:\n")
	if len(res.TimeLimited) == 0 {
		sb.WriteString("None detected right now.\n")
	}
	for _, c := range res.TimeLimited {
		fmt.Fprintf(&sb, "**%s** → %s\n", c.Code, c.Reward)
	}

	if len(res.NewPlayer) > 0 {
		sb.WriteString("New player / long-term codes:\n")
		for _, c := range res.NewPlayer {
			fmt.Fprintf(&sb, "**%s** → %s\n", c.Code, c.Reward)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
