package discord

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/shanehull/promowatch/internal/types"
)

const (
	embedColor      = 0xFF4500
	embedTitle      = "RAID: Shadow Legends Promo Codes"
	embedFooter     = "Codes can expire quickly, redeem in-game ASAP!"
	maxFieldLength  = 1024
	maxNewPlayerRow = 10
)

// CodesEmbed renders an extraction as a listcodes embed.
func CodesEmbed(res types.ExtractionResult, sourceURL string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       embedTitle,
		URL:         sourceURL,
		Color:       embedColor,
		Description: fmt.Sprintf("Last checked/updated: **%s**\nSource: %s", res.UpdateLabel, sourceName(sourceURL)),
		Footer:      &discordgo.MessageEmbedFooter{Text: embedFooter},
	}
	if !res.FetchedAt.IsZero() {
		embed.Timestamp = res.FetchedAt.Format(time.RFC3339)
	}

	if len(res.TimeLimited) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🕒 Time-Limited Codes (Everyone)",
			Value: fieldValue(res.TimeLimited, 0),
		})
	} else {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🕒 Time-Limited Codes",
			Value: "None detected right now, check the source page directly.",
		})
	}

	if len(res.NewPlayer) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🆕 New Player / Long-term Codes",
			Value: fieldValue(res.NewPlayer, maxNewPlayerRow),
		})
	}

	return embed
}

// fieldValue lists up to limit records (0 means all) and notes the remainder, keeping the
// result within the platform's field length.
func fieldValue(records []types.CodeRecord, limit int) string {
	shown := len(records)
	if limit > 0 && shown > limit {
		shown = limit
	}

	lines := make([]string, 0, shown)
	for _, r := range records[:shown] {
		lines = append(lines, fmt.Sprintf("**%s** → %s", r.Code, r.Reward))
	}

	for {
		value := strings.Join(lines, "\n")
		if rest := len(records) - len(lines); rest > 0 {
			value += fmt.Sprintf("\n...and %d more", rest)
		}
		if utf8.RuneCountInString(value) <= maxFieldLength || len(lines) == 1 {
			return truncate(value, maxFieldLength)
		}
		lines = lines[:len(lines)-1]
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// sourceName is the host of the source page without a www prefix.
func sourceName(sourceURL string) string {
	u, err := url.Parse(sourceURL)
	if err != nil || u.Host == "" {
		return sourceURL
	}
	return strings.TrimPrefix(u.Host, "www.")
}
