package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanehull/promowatch/internal/notify"
	"github.com/shanehull/promowatch/internal/types"
)

func TestRenderNewCode(t *testing.T) {
	msg, err := notify.NewAlertRenderer(sourceURL).Render(types.NewCodeEvent{Code: "MIDLOVE", Reward: "50 Silver"})
	require.NoError(t, err)

	assert.Equal(t, "New RAID promo code: MIDLOVE", msg.Subject)
	assert.Equal(t, "🔥 **New RAID Promo Code!**\n**MIDLOVE** → 50 Silver\n→ Check the source for full rewards: <"+sourceURL+">", msg.Text)
	assert.Contains(t, msg.HTML, `<div class="code">MIDLOVE</div>`)
	assert.Contains(t, msg.HTML, "50 Silver")
	assert.Contains(t, msg.HTML, `href="`+sourceURL+`"`)
}

func TestRenderWithoutReward(t *testing.T) {
	msg, err := notify.NewAlertRenderer(sourceURL).Render(types.NewCodeEvent{Code: "MIDLOVE"})
	require.NoError(t, err)

	assert.Equal(t, "🔥 **New RAID Promo Code!**\n**MIDLOVE**\n→ Check the source for full rewards: <"+sourceURL+">", msg.Text)
	assert.NotContains(t, msg.HTML, ">Reward<")
}

func TestRenderTestEvent(t *testing.T) {
	msg, err := notify.NewAlertRenderer(sourceURL).Render(types.NewCodeEvent{Code: "TESTCODE", Test: true})
	require.NoError(t, err)

	assert.Equal(t, "RAID promo alerts: test", msg.Subject)
	assert.Contains(t, msg.Text, "Test Alert")
	assert.NotContains(t, msg.Text, "TESTCODE")
	assert.Contains(t, msg.HTML, "Test alert")
}

func TestRenderEscapesHTML(t *testing.T) {
	msg, err := notify.NewAlertRenderer(sourceURL).Render(types.NewCodeEvent{Code: "SAFE1", Reward: "<script>x</script>"})
	require.NoError(t, err)

	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
}
