package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanehull/promowatch/internal/commands"
	"github.com/shanehull/promowatch/internal/logger"
	"github.com/shanehull/promowatch/internal/types"
)

type fakeInteractionAPI struct {
	responses  []*discordgo.InteractionResponse
	edits      []*discordgo.WebhookEdit
	followups  []*discordgo.WebhookParams
	deleted    int
	respondErr error
}

func (f *fakeInteractionAPI) InteractionResponseDelete(*discordgo.Interaction, ...discordgo.RequestOption) error {
	f.deleted++
	return nil
}

func (f *fakeInteractionAPI) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.followups = append(f.followups, data)
	return &discordgo.Message{}, nil
}

func (f *fakeInteractionAPI) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp)
	return f.respondErr
}

func (f *fakeInteractionAPI) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits = append(f.edits, edit)
	return &discordgo.Message{}, nil
}

func newTestBot(t *testing.T) *Bot {
	t.Helper()
	r := commands.NewRouter(nil, nil)
	r.Register(commands.Definition{Name: "ping"}, func(_ context.Context, inv commands.Invocation) (commands.Reply, error) {
		return commands.Reply{Content: "pong " + inv.ChannelID + " " + inv.UserID, Ephemeral: true}, nil
	})
	r.Register(commands.Definition{Name: "slow", Deferred: true}, func(context.Context, commands.Invocation) (commands.Reply, error) {
		return commands.Reply{Content: "text", Codes: &types.ExtractionResult{UpdateLabel: "Today"}}, nil
	})
	r.Register(commands.Definition{Name: "slowfail", Deferred: true}, func(context.Context, commands.Invocation) (commands.Reply, error) {
		return commands.Reply{}, errors.New("boom")
	})
	return &Bot{cfg: Config{SourceURL: testSourceURL}, router: r, log: logger.NewNoOp()}
}

func command(name string) *discordgo.Interaction {
	return &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: "chan-1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "user-1"}},
		Data:      discordgo.ApplicationCommandInteractionData{Name: name},
	}
}

func TestHandleInteractionImmediate(t *testing.T) {
	b := newTestBot(t)
	api := &fakeInteractionAPI{}

	b.handleInteraction(context.Background(), api, command("ping"))

	require.Len(t, api.responses, 1)
	resp := api.responses[0]
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, "pong chan-1 user-1", resp.Data.Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	assert.Empty(t, api.edits)
}

func TestHandleInteractionDeferred(t *testing.T) {
	b := newTestBot(t)
	api := &fakeInteractionAPI{}

	b.handleInteraction(context.Background(), api, command("slow"))

	require.Len(t, api.responses, 1)
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, api.responses[0].Type)
	require.Len(t, api.edits, 1)
	require.NotNil(t, api.edits[0].Embeds)
	embeds := *api.edits[0].Embeds
	require.Len(t, embeds, 1)
	assert.Equal(t, embedTitle, embeds[0].Title)
	assert.Empty(t, *api.edits[0].Content)
	assert.Empty(t, api.followups)
	assert.Zero(t, api.deleted)
}

func TestHandleInteractionDeferredFailure(t *testing.T) {
	b := newTestBot(t)
	api := &fakeInteractionAPI{}

	b.handleInteraction(context.Background(), api, command("slowfail"))

	assert.Empty(t, api.edits, "a failure must not be posted into the public deferred reply")
	assert.Equal(t, 1, api.deleted)
	require.Len(t, api.followups, 1)
	assert.Equal(t, commands.GenericFailure, api.followups[0].Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, api.followups[0].Flags)
}

func TestHandleInteractionDeferFails(t *testing.T) {
	b := newTestBot(t)
	api := &fakeInteractionAPI{respondErr: errors.New("unknown interaction")}

	b.handleInteraction(context.Background(), api, command("slow"))

	assert.Len(t, api.responses, 1)
	assert.Empty(t, api.edits)
}

func TestHandleInteractionIgnoresOtherTypes(t *testing.T) {
	b := newTestBot(t)
	api := &fakeInteractionAPI{}

	b.handleInteraction(context.Background(), api, &discordgo.Interaction{Type: discordgo.InteractionPing})

	assert.Empty(t, api.responses)
}

func TestHandleInteractionUnknownCommand(t *testing.T) {
	b := newTestBot(t)
	api := &fakeInteractionAPI{}

	b.handleInteraction(context.Background(), api, command("missing"))

	require.Len(t, api.responses, 1)
	assert.Equal(t, "Unknown command: missing", api.responses[0].Data.Content)
}

func TestInteractionUserID(t *testing.T) {
	assert.Equal(t, "user-1", interactionUserID(command("x")))
	assert.Equal(t, "dm-user", interactionUserID(&discordgo.Interaction{User: &discordgo.User{ID: "dm-user"}}))
	assert.Empty(t, interactionUserID(&discordgo.Interaction{}))
}

func TestNewSession(t *testing.T) {
	_, err := NewSession("")
	require.ErrorIs(t, err, ErrMissingToken)

	s, err := NewSession("abc")
	require.NoError(t, err)
	assert.Equal(t, "Bot abc", s.Token)
	assert.Equal(t, discordgo.IntentsGuilds|discordgo.IntentsGuildMessages, s.Identify.Intents)

	b := NewBot(s, Config{AppID: "app"}, commands.NewRouter(nil, nil), nil)
	id, err := b.appID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "app", id)
}

type ctxKey struct{}

func TestOnInteractionCreateUsesParentContext(t *testing.T) {
	b := newTestBot(t)
	var got context.Context
	b.router.Register(commands.Definition{Name: "ctx"}, func(ctx context.Context, _ commands.Invocation) (commands.Reply, error) {
		got = ctx
		return commands.Reply{Content: "ok"}, nil
	})
	api := &fakeInteractionAPI{}
	parent := context.WithValue(context.Background(), ctxKey{}, "lifetime")

	b.onInteractionCreate(parent, api, &discordgo.InteractionCreate{Interaction: command("ctx")})

	require.NotNil(t, got)
	assert.Equal(t, "lifetime", got.Value(ctxKey{}))
	_, hasDeadline := got.Deadline()
	assert.True(t, hasDeadline)
	assert.ErrorIs(t, got.Err(), context.Canceled, "handler context ends with the interaction")
}

func TestOnInteractionCreateCancelledParent(t *testing.T) {
	b := newTestBot(t)
	var gotErr error
	b.router.Register(commands.Definition{Name: "ctx"}, func(ctx context.Context, _ commands.Invocation) (commands.Reply, error) {
		gotErr = ctx.Err()
		return commands.Reply{Content: "ok"}, nil
	})
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	b.onInteractionCreate(parent, &fakeInteractionAPI{}, &discordgo.InteractionCreate{Interaction: command("ctx")})

	assert.ErrorIs(t, gotErr, context.Canceled)
}
