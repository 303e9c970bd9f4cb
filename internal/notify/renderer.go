package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/shanehull/promowatch/internal/types"
)

// GameName is used in alert titles.
const GameName = "RAID"

// AlertRenderer renders events as chat markdown with an HTML alternative for email.
type AlertRenderer struct {
	tmpl      *template.Template
	sourceURL string
}

// NewAlertRenderer creates a renderer linking every alert to sourceURL.
func NewAlertRenderer(sourceURL string) *AlertRenderer {
	t := template.Must(template.New("alert").Parse(alertHTMLTemplate))
	return &AlertRenderer{tmpl: t, sourceURL: sourceURL}
}

type alertData struct {
	Game      string
	Event     types.NewCodeEvent
	SourceURL string
}

func (r *AlertRenderer) Render(ev types.NewCodeEvent) (*RenderedMessage, error) {
	data := alertData{Game: GameName, Event: ev, SourceURL: r.sourceURL}

	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &RenderedMessage{
		Subject: renderSubject(ev),
		Text:    renderText(data),
		HTML:    htmlBuf.String(),
	}, nil
}

func renderSubject(ev types.NewCodeEvent) string {
	if ev.Test {
		return fmt.Sprintf("%s promo alerts: test", GameName)
	}
	return fmt.Sprintf("New %s promo code: %s", GameName, ev.Code)
}

// renderText produces the chat message. Angle brackets stop Discord from unfurling the link.
func renderText(data alertData) string {
	if data.Event.Test {
		return fmt.Sprintf("🔥 **Test Alert:** Bot is working and watching <%s>!", data.SourceURL)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔥 **New %s Promo Code!**\n", data.Game))
	sb.WriteString(fmt.Sprintf("**%s**", data.Event.Code))
	if data.Event.Reward != "" {
		sb.WriteString(fmt.Sprintf(" → %s", data.Event.Reward))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("→ Check the source for full rewards: <%s>", data.SourceURL))
	return sb.String()
}
