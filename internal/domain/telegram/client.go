package telegram

// Client sends plain text to an admin chat.
// This keeps the app layer unaware of the bot library.
type Client interface {
	SendMessage(recipientChatID int64, text string) error
}
