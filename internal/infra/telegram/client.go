// internal/infra/telegram/client.go
package telegram

import (
	"gopkg.in/telebot.v3"
)

// TelebotAdapter delivers run summaries and status replies to the admin's private chat.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage posts plain text; summaries carry run ids, never links, so previews are off.
func (tba *TelebotAdapter) SendMessage(adminChatID int64, text string) error {
	_, err := tba.bot.Send(&telebot.Chat{ID: adminChatID}, text, &telebot.SendOptions{DisableWebPagePreview: true})
	return err
}
