package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/shanehull/promowatch/internal/notify"
)

// channelAPI is the part of *discordgo.Session the sender needs.
type channelAPI interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ChannelSender posts alerts to a Discord channel. The destination is the channel ID.
type ChannelSender struct {
	api channelAPI
}

var _ notify.Sender = (*ChannelSender)(nil)

func NewChannelSender(api channelAPI) *ChannelSender {
	return &ChannelSender{api: api}
}

func (s *ChannelSender) Send(ctx context.Context, destination string, msg *notify.RenderedMessage) error {
	ch, err := s.api.Channel(destination, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("resolve channel %s: %w", destination, err)
	}
	if !textCapable(ch.Type) {
		return fmt.Errorf("channel %s cannot receive text messages", destination)
	}

	if _, err := s.api.ChannelMessageSend(destination, msg.Text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send to channel %s: %w", destination, err)
	}
	return nil
}

func textCapable(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildText,
		discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeDM,
		discordgo.ChannelTypeGroupDM,
		discordgo.ChannelTypeGuildNewsThread,
		discordgo.ChannelTypeGuildPublicThread,
		discordgo.ChannelTypeGuildPrivateThread:
		return true
	default:
		return false
	}
}
