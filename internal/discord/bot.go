/*
Package discord connects the command router and alert sender to a Discord bot session.
*/
package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/shanehull/promowatch/internal/commands"
	"github.com/shanehull/promowatch/internal/logger"
)

const interactionTimeout = 30 * time.Second

var ErrMissingToken = errors.New("discord token is empty")

type Config struct {
	AppID     string
	GuildID   string
	SourceURL string
}

// interactionAPI is the part of *discordgo.Session used to answer commands.
type interactionAPI interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseDelete(interaction *discordgo.Interaction, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Bot struct {
	cfg     Config
	session *discordgo.Session
	router  *commands.Router
	log     logger.Interface

	removeHandlers []func()
}

// NewSession creates a bot session with the intents the bot needs. It is not connected until
// Bot.Open; REST calls work before that.
func NewSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	return s, nil
}

func NewBot(session *discordgo.Session, cfg Config, router *commands.Router, log logger.Interface) *Bot {
	if log == nil {
		log = logger.NewNoOp()
	}

	b := &Bot{
		cfg:     cfg,
		session: session,
		router:  router,
		log:     log.WithComponent("discord"),
	}
	return b
}

// Open installs the event handlers and connects to the gateway. Command handlers run with ctx
// as their parent context.
func (b *Bot) Open(ctx context.Context) error {
	b.removeHandlers = append(b.removeHandlers,
		b.session.AddHandler(b.onReady),
		b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			b.onInteractionCreate(ctx, s, i)
		}),
	)
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	for _, remove := range b.removeHandlers {
		remove()
	}
	b.removeHandlers = nil
	return b.session.Close()
}

// RegisterCommands overwrites the application's commands with the router's definitions,
// scoped to the configured guild or global when none is set.
func (b *Bot) RegisterCommands(ctx context.Context) (int, error) {
	appID, err := b.appID(ctx)
	if err != nil {
		return 0, err
	}

	defs := b.router.Definitions()
	cmds := make([]*discordgo.ApplicationCommand, 0, len(defs))
	for _, d := range defs {
		cmds = append(cmds, &discordgo.ApplicationCommand{
			Name:        d.Name,
			Description: d.Description,
		})
	}

	registered, err := b.session.ApplicationCommandBulkOverwrite(appID, b.cfg.GuildID, cmds, discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to register commands: %w", err)
	}

	scope := "global"
	if b.cfg.GuildID != "" {
		scope = "guild " + b.cfg.GuildID
	}
	b.log.Info("Commands registered", "count", len(registered), "scope", scope)
	return len(registered), nil
}

func (b *Bot) appID(ctx context.Context) (string, error) {
	if b.cfg.AppID != "" {
		return b.cfg.AppID, nil
	}
	if b.session.State != nil && b.session.State.User != nil {
		return b.session.State.User.ID, nil
	}
	u, err := b.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to resolve application id: %w", err)
	}
	return u.ID, nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	user := ""
	if r.User != nil {
		user = r.User.Username
	}
	b.log.Info("Logged in", "user", user, "guilds", len(r.Guilds))
}

func (b *Bot) onInteractionCreate(parent context.Context, api interactionAPI, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(parent, interactionTimeout)
	defer cancel()
	b.handleInteraction(ctx, api, i.Interaction)
}

func (b *Bot) handleInteraction(ctx context.Context, api interactionAPI, i *discordgo.Interaction) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	inv := commands.Invocation{
		Name:      i.ApplicationCommandData().Name,
		ChannelID: i.ChannelID,
		UserID:    interactionUserID(i),
	}
	log := b.log.With("command", inv.Name, "channel_id", inv.ChannelID)

	def, known := b.router.Definition(inv.Name)
	if !known || !def.Deferred {
		reply := b.router.Handle(ctx, inv)
		err := api.InteractionRespond(i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: b.responseData(reply),
		}, discordgo.WithContext(ctx))
		if err != nil {
			log.Error("Failed to reply to command", "error", err)
		}
		return
	}

	err := api.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx))
	if err != nil {
		log.Error("Failed to defer command reply", "error", err)
		return
	}

	reply := b.router.Handle(ctx, inv)
	if reply.Ephemeral {
		b.replyPrivately(ctx, api, i, reply, log)
		return
	}

	data := b.responseData(reply)
	edit := &discordgo.WebhookEdit{Content: &data.Content}
	if len(data.Embeds) > 0 {
		edit.Embeds = &data.Embeds
	}
	if _, err := api.InteractionResponseEdit(i, edit, discordgo.WithContext(ctx)); err != nil {
		log.Error("Failed to edit deferred reply", "error", err)
	}
}

// replyPrivately swaps a public deferred reply for an ephemeral follow-up, since the
// visibility of a deferred reply cannot be changed by editing it.
func (b *Bot) replyPrivately(ctx context.Context, api interactionAPI, i *discordgo.Interaction, reply commands.Reply, log logger.Interface) {
	if err := api.InteractionResponseDelete(i, discordgo.WithContext(ctx)); err != nil {
		log.Warn("Failed to delete deferred reply", "error", err)
	}
	_, err := api.FollowupMessageCreate(i, false, &discordgo.WebhookParams{
		Content: reply.Content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}, discordgo.WithContext(ctx))
	if err != nil {
		log.Error("Failed to send private follow-up", "error", err)
	}
}

func (b *Bot) responseData(reply commands.Reply) *discordgo.InteractionResponseData {
	data := &discordgo.InteractionResponseData{Content: reply.Content}
	if reply.Codes != nil {
		data.Content = ""
		data.Embeds = []*discordgo.MessageEmbed{CodesEmbed(*reply.Codes, b.cfg.SourceURL)}
	}
	if reply.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return data
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
