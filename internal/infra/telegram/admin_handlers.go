package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"escala_notifier/internal/app"
	"escala_notifier/internal/domain/reminder"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const commandTimeout = 5 * time.Minute

const msgUnauthorized = "Erro: você não tem permissão para executar este comando."

// RegisterAdminHandlers registers the reminder commands. Only the configured admin may use them.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, baseLogger *logrus.Entry) {
	b.Handle("/lembretes", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/lembretes",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(msgUnauthorized)
		}

		// Expected format: /lembretes [D3|D1|D0|todos]
		args := c.Args()
		if len(args) > 1 {
			return c.Send("Formato inválido. Use: /lembretes [D3|D1|D0|todos]")
		}
		tipo := ""
		if len(args) == 1 {
			tipo = args[0]
		}
		kinds, err := reminder.ParseKinds(tipo)
		if err != nil {
			handlerLogger.WithError(err).Warn("Invalid kind argument")
			return c.Send("Tipo inválido. Use D3, D1, D0 ou todos.")
		}

		runCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		result, err := adminService.TriggerRun(runCtx, c.Sender().ID, kinds)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to run reminders")
			return c.Send(fmt.Sprintf("Ocorreu um erro ao enviar os lembretes: %s", err.Error()))
		}

		handlerLogger.WithField("run_id", result.RunID).Info("Reminder run finished")
		return c.Send(app.FormatRunSummary(result))
	})

	b.Handle("/teste", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/teste",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(msgUnauthorized)
		}

		// Expected format: /teste <D3|D1|D0> <telefone> [nome]
		args := c.Args()
		if len(args) < 2 {
			return c.Send("Formato inválido. Use: /teste <D3|D1|D0> <telefone> [nome]")
		}
		kind, err := reminder.ParseKind(args[0])
		if err != nil {
			return c.Send("Tipo inválido. Use D3, D1 ou D0.")
		}
		phone := args[1]
		name := strings.Join(args[2:], " ")

		runCtx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		result, err := adminService.SendTest(runCtx, c.Sender().ID, kind, phone, name)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			if errors.Is(err, app.ErrInvalidTestRecipient) {
				logWithError.Warn("Invalid test phone")
				return c.Send("Telefone inválido. Informe DDD e número.")
			}
			logWithError.Error("Failed to send test reminder")
			return c.Send(fmt.Sprintf("Ocorreu um erro ao enviar o teste: %s", err.Error()))
		}
		return c.Send(app.FormatRunSummary(result))
	})

	b.Handle("/status", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/status",
			"sender_id": c.Sender().ID,
		})
		if !adminService.IsAdmin(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(msgUnauthorized)
		}

		report, err := adminService.Status(ctx, c.Sender().ID)
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to load reminder status")
			return c.Send(fmt.Sprintf("Ocorreu um erro ao consultar o status: %s", err.Error()))
		}
		return c.Send(app.FormatStatusReport(report))
	})
}
