package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"escala_notifier/internal/app"
	"escala_notifier/internal/domain/reminder"
	"escala_notifier/internal/infra/auth"

	"github.com/sirupsen/logrus"
)

const reminderRunTimeout = 10 * time.Minute

// RunReporter is notified after webhook-triggered runs.
type RunReporter interface {
	ReportRun(result *app.RunResult)
}

type ReminderHandler struct {
	Svc      app.ReminderService
	Reporter RunReporter // optional
	Logger   *logrus.Entry
}

type manualRunReq struct {
	Tipo       string `json:"tipo"`
	Teste      bool   `json:"teste"`
	PhoneTeste string `json:"phone_teste"`
	NomeTeste  string `json:"nome_teste"`
}

type runResp struct {
	OK bool `json:"ok"`
	*app.RunResult
}

// Manual handles POST /api/escalas/lembretes.
func (h *ReminderHandler) Manual(w http.ResponseWriter, r *http.Request) {
	var req manualRunReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
	}

	kinds, err := reminder.ParseKinds(req.Tipo)
	if err != nil {
		writeError(w, http.StatusBadRequest, "tipo inválido: use D3, D1, D0 ou todos")
		return
	}

	runReq := app.RunRequest{Kinds: kinds, Trigger: app.TriggerManual}
	if req.Teste {
		if strings.TrimSpace(req.PhoneTeste) == "" {
			writeError(w, http.StatusBadRequest, "phone_teste obrigatório no modo teste")
			return
		}
		runReq.Test = &app.TestRecipient{Phone: req.PhoneTeste, Name: strings.TrimSpace(req.NomeTeste)}
	}

	log := h.Logger.WithFields(logrus.Fields{"handler": "manual", "tipo": req.Tipo, "teste": req.Teste})
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		log = log.WithField("user_id", claims.Subject)
	}
	log.Info("Manual reminder run requested")

	ctx, cancel := runContext(r)
	defer cancel()
	result, err := h.Svc.Run(ctx, runReq)
	if err != nil {
		h.writeRunError(w, log, err)
		return
	}
	writeJSON(w, http.StatusOK, runResp{OK: true, RunResult: result})
}

// Cron handles the scheduler webhook: every kind, for today, no body.
func (h *ReminderHandler) Cron(w http.ResponseWriter, r *http.Request) {
	log := h.Logger.WithField("handler", "cron")
	log.Info("Cron webhook reminder run requested")

	ctx, cancel := runContext(r)
	defer cancel()
	result, err := h.Svc.Run(ctx, app.RunRequest{Trigger: app.TriggerCron})
	if err != nil {
		h.writeRunError(w, log, err)
		return
	}
	if h.Reporter != nil {
		h.Reporter.ReportRun(result)
	}
	writeJSON(w, http.StatusOK, runResp{OK: true, RunResult: result})
}

// runContext detaches the run from the client connection: a caller that hangs up
// must not leave the batch half sent.
func runContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), reminderRunTimeout)
}

func (h *ReminderHandler) writeRunError(w http.ResponseWriter, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, reminder.ErrInvalidKind):
		writeError(w, http.StatusBadRequest, "tipo inválido")
	case errors.Is(err, app.ErrInvalidTestRecipient):
		writeError(w, http.StatusBadRequest, "phone_teste inválido")
	default:
		log.WithError(err).Error("Reminder run failed")
		writeError(w, http.StatusInternalServerError, "server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}
