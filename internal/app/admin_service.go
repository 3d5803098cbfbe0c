package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"escala_notifier/internal/domain/reminder"
	domainTelegram "escala_notifier/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")

// StatusReport aggregates today's reminder log rows per kind and status.
type StatusReport struct {
	Since  time.Time
	Counts map[reminder.Kind]map[reminder.Status]int
}

// AdminService backs the Telegram admin commands and pushes run summaries.
type AdminService struct {
	reminders       ReminderService
	logRepo         reminder.LogRepository
	telegramClient  domainTelegram.Client // nil when the bot is disabled
	adminTelegramID int64
	location        *time.Location
	now             func() time.Time
	logger          *logrus.Entry
}

func NewAdminService(
	rs ReminderService,
	lr reminder.LogRepository,
	tc domainTelegram.Client,
	adminID int64,
	location *time.Location,
	logger *logrus.Entry,
) *AdminService {
	return &AdminService{
		reminders:       rs,
		logRepo:         lr,
		telegramClient:  tc,
		adminTelegramID: adminID,
		location:        location,
		now:             time.Now,
		logger:          logger,
	}
}

func (s *AdminService) IsAdmin(telegramID int64) bool {
	return s.adminTelegramID != 0 && telegramID == s.adminTelegramID
}

// TriggerRun runs the dispatcher on behalf of the admin.
func (s *AdminService) TriggerRun(ctx context.Context, performingAdminID int64, kinds []reminder.Kind) (*RunResult, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	return s.reminders.Run(ctx, RunRequest{Kinds: kinds, Trigger: TriggerTelegram})
}

// SendTest sends one sample message of kind to phone.
func (s *AdminService) SendTest(ctx context.Context, performingAdminID int64, kind reminder.Kind, phone, name string) (*RunResult, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	return s.reminders.Run(ctx, RunRequest{
		Kinds:   []reminder.Kind{kind},
		Trigger: TriggerTelegram,
		Test:    &TestRecipient{Phone: phone, Name: name},
	})
}

// Status counts reminder log rows written since midnight.
func (s *AdminService) Status(ctx context.Context, performingAdminID int64) (*StatusReport, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	since := DateOnly(s.now(), s.location)
	counts, err := s.logRepo.CountByStatusSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count reminder log: %w", err)
	}
	return &StatusReport{Since: since, Counts: counts}, nil
}

// ReportRun pushes a run summary to the admin chat. Errors are logged, never returned to the run.
func (s *AdminService) ReportRun(result *RunResult) {
	if s.telegramClient == nil || s.adminTelegramID == 0 {
		return
	}
	if err := s.telegramClient.SendMessage(s.adminTelegramID, FormatRunSummary(result)); err != nil {
		s.logger.WithError(err).WithField("run_id", result.RunID).Error("Failed to send run summary to admin")
	}
}

// FormatRunSummary renders a result as the Portuguese text sent to admins.
func FormatRunSummary(result *RunResult) string {
	var b strings.Builder
	title := "Lembretes de escala"
	if result.Test {
		title += " (teste)"
	}
	fmt.Fprintf(&b, "%s - %s\n", title, result.Trigger)
	for _, k := range result.Results {
		if k.Locked {
			fmt.Fprintf(&b, "%s (%s): em execução por outra rotina\n", k.Kind, k.TargetDate)
			continue
		}
		fmt.Fprintf(&b, "%s (%s): %d candidatos, %d enviados, %d ignorados, %d erros\n",
			k.Kind, k.TargetDate, k.Total, k.Sent, k.Skipped, k.Errors)
	}
	fmt.Fprintf(&b, "Execução: %s", result.RunID)
	return b.String()
}

// FormatStatusReport renders a status report, kinds in dispatch order and statuses sorted.
func FormatStatusReport(r *StatusReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lembretes desde %s\n", r.Since.Format("02/01/2006 15:04"))
	if len(r.Counts) == 0 {
		b.WriteString("Nenhum lembrete registrado.")
		return b.String()
	}
	for _, k := range reminder.AllKinds {
		byStatus, ok := r.Counts[k]
		if !ok {
			continue
		}
		statuses := make([]string, 0, len(byStatus))
		for st := range byStatus {
			statuses = append(statuses, string(st))
		}
		sort.Strings(statuses)
		parts := make([]string, 0, len(statuses))
		for _, st := range statuses {
			parts = append(parts, fmt.Sprintf("%s=%d", st, byStatus[reminder.Status(st)]))
		}
		fmt.Fprintf(&b, "%s: %s\n", k, strings.Join(parts, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
