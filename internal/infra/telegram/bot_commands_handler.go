// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"escala_notifier/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func RegisterBotCommands(b *telebot.Bot, adminService *app.AdminService, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/start").WithField("sender_id", senderID)
		logCtx.Info("Processing /start command")

		if adminService.IsAdmin(senderID) {
			return c.Send(fmt.Sprintf("Olá, %s! Eu envio os lembretes de escala pelo WhatsApp. Use /help para ver os comandos.", c.Sender().FirstName))
		}
		logCtx.Info("User is not the admin")
		return c.Send("Olá! Este bot é restrito à administração das escalas.")
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := startHelpLogger.WithField("command", "/help").WithField("sender_id", senderID)
		logCtx.Info("Processing /help command")

		if !adminService.IsAdmin(senderID) {
			return c.Send("Nenhum comando disponível para você.")
		}

		var helpText strings.Builder
		helpText.WriteString("Comandos disponíveis:\n\n")
		helpText.WriteString("`/lembretes [D3|D1|D0|todos]`\n - Envia agora os lembretes pendentes (padrão: todos).\n\n")
		helpText.WriteString("`/teste <D3|D1|D0> <telefone> [nome]`\n - Envia uma mensagem de exemplo para um telefone.\n\n")
		helpText.WriteString("`/status`\n - Resumo dos lembretes registrados hoje.\n\n")
		helpText.WriteString("`/help`\n - Mostra esta mensagem.")
		return c.Send(helpText.String(), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	})
}
