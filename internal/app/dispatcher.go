package app

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"escala_notifier/internal/domain/reminder"
	"escala_notifier/internal/domain/whatsapp"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Outcome of delivering one item.
type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeFailed
	OutcomeSkipped
)

const (
	maxAuditBody    = 1024
	logWriteTimeout = 5 * time.Second
)

// TemplateSet maps each kind to the provider template ("messageId").
type TemplateSet map[reminder.Kind]string

// ReminderSender sends one reminder and records the attempt in both logs.
type ReminderSender struct {
	sender    whatsapp.Sender
	logRepo   reminder.LogRepository
	auditRepo reminder.DispatchLogRepository
	templates TemplateSet
	backoff   time.Duration
	now       func() time.Time
	logger    *logrus.Entry
}

func NewReminderSender(
	ws whatsapp.Sender,
	lr reminder.LogRepository,
	ar reminder.DispatchLogRepository,
	templates TemplateSet,
	backoff time.Duration,
	now func() time.Time,
	logger *logrus.Entry,
) *ReminderSender {
	if now == nil {
		now = time.Now
	}
	return &ReminderSender{
		sender:    ws,
		logRepo:   lr,
		auditRepo: ar,
		templates: templates,
		backoff:   backoff,
		now:       now,
		logger:    logger,
	}
}

// BuildVariables returns the template placeholders for kind.
func BuildVariables(kind reminder.Kind, item *reminder.AssignmentItem) map[string]string {
	vars := map[string]string{
		"nome":    firstName(item.PersonName),
		"funcao":  strings.Join(item.Roles, ", "),
		"horario": item.SlotTime,
		"local":   item.Location,
	}
	if kind == reminder.KindD0 {
		vars["lider"] = item.LeaderContact
		return vars
	}
	vars["dia_semana"] = WeekdayPT(item.SlotDate)
	vars["data"] = FormatDayMonth(item.SlotDate)
	return vars
}

// Deliver claims the key, sends the message and writes the idempotency and audit logs.
// Log writes are best-effort: their failures are logged and never change the outcome.
func (s *ReminderSender) Deliver(ctx context.Context, runID string, kind reminder.Kind, item *reminder.AssignmentItem) Outcome {
	log := s.logger.WithFields(logrus.Fields{
		"run_id":    runID,
		"kind":      kind,
		"slot_id":   item.SlotID,
		"person_id": item.PersonID,
	})

	entry := &reminder.LogEntry{
		SlotID:   item.SlotID,
		SlotDate: item.SlotDate,
		PersonID: item.PersonID,
		Kind:     kind,
		Status:   reminder.StatusPending,
		SentAt:   s.now(),
	}
	granted, err := s.logRepo.Claim(ctx, entry, s.backoff)
	if err != nil {
		log.WithError(err).Warn("Could not claim reminder key, sending anyway")
	} else if !granted {
		log.Info("Reminder key claimed by another run, skipping")
		return OutcomeSkipped
	}

	msg := whatsapp.Message{
		Phone:     item.Phone,
		MessageID: s.templates[kind],
		Variables: BuildVariables(kind, item),
	}
	res, sendErr := s.sender.Send(ctx, msg)

	// the message may already be out; record it even if the run was cancelled meanwhile
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logWriteTimeout)
	defer cancel()

	entry.Status = reminder.StatusSent
	if sendErr != nil {
		entry.Status = reminder.StatusFailed
	}
	entry.StatusCode = statusCode(res)
	entry.SentAt = s.now()

	if err := s.logRepo.Upsert(writeCtx, entry); err != nil {
		log.WithError(err).Error("Failed to upsert reminder log")
	}

	s.audit(writeCtx, log, &reminder.DispatchLogEntry{
		RunID:        runID,
		Kind:         kind,
		SlotID:       sql.NullString{String: item.SlotID, Valid: true},
		PersonID:     sql.NullString{String: item.PersonID, Valid: true},
		Phone:        item.Phone,
		MessageID:    msg.MessageID,
		Variables:    msg.Variables,
		Status:       entry.Status,
		StatusCode:   entry.StatusCode,
		ResponseBody: responseBody(res),
	})

	if sendErr != nil {
		log.WithError(sendErr).WithField("status_code", res.StatusCode).Warn("Reminder send failed")
		return OutcomeFailed
	}
	log.Info("Reminder sent")
	return OutcomeSent
}

// SendTest sends a sample message of the given kind to an arbitrary recipient.
// Only the audit log is written; the idempotency log is untouched.
func (s *ReminderSender) SendTest(ctx context.Context, runID string, kind reminder.Kind, item *reminder.AssignmentItem) Outcome {
	log := s.logger.WithFields(logrus.Fields{"run_id": runID, "kind": kind, "test": true})

	msg := whatsapp.Message{
		Phone:     item.Phone,
		MessageID: s.templates[kind],
		Variables: BuildVariables(kind, item),
	}
	res, sendErr := s.sender.Send(ctx, msg)

	status := reminder.StatusSent
	if sendErr != nil {
		status = reminder.StatusFailed
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logWriteTimeout)
	defer cancel()
	s.audit(writeCtx, log, &reminder.DispatchLogEntry{
		RunID:        runID,
		Kind:         kind,
		Phone:        item.Phone,
		MessageID:    msg.MessageID,
		Variables:    msg.Variables,
		Status:       status,
		StatusCode:   statusCode(res),
		ResponseBody: responseBody(res),
		Test:         true,
	})

	if sendErr != nil {
		log.WithError(sendErr).Warn("Test reminder send failed")
		return OutcomeFailed
	}
	log.Info("Test reminder sent")
	return OutcomeSent
}

func (s *ReminderSender) audit(ctx context.Context, log *logrus.Entry, e *reminder.DispatchLogEntry) {
	e.ID = uuid.NewString()
	e.CreatedAt = s.now()
	if err := s.auditRepo.Append(ctx, e); err != nil {
		log.WithError(err).Error("Failed to append dispatch audit log")
	}
}

func statusCode(res whatsapp.SendResult) sql.NullInt32 {
	if res.StatusCode == 0 {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(res.StatusCode), Valid: true}
}

func responseBody(res whatsapp.SendResult) sql.NullString {
	if res.Body == "" {
		return sql.NullString{}
	}
	body := res.Body
	if len(body) > maxAuditBody {
		body = strings.ToValidUTF8(body[:maxAuditBody], "")
	}
	return sql.NullString{String: body, Valid: true}
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
