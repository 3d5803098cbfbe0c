package scheduler

import (
	"context"
	"fmt"
	"time"

	"escala_notifier/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const reminderJobTimeout = 10 * time.Minute

// RunReporter receives the result of every scheduled run.
type RunReporter interface {
	ReportRun(result *app.RunResult)
}

type ReminderScheduler struct {
	cronEngine        *cron.Cron
	reminderService   app.ReminderService
	reporter          RunReporter // optional
	logger            *logrus.Entry
	cronSpecReminders string
}

func NewReminderScheduler(
	reminderService app.ReminderService,
	reporter RunReporter,
	logger *logrus.Entry,
	location *time.Location,
	cronSpecReminders string, // e.g., "0 8 * * *" (08:00 daily)
) *ReminderScheduler {
	return &ReminderScheduler{
		cronEngine:        cron.New(cron.WithLocation(location)),
		reminderService:   reminderService,
		reporter:          reporter,
		logger:            logger,
		cronSpecReminders: cronSpecReminders,
	}
}

// Start registers the daily reminder job and starts the cron engine.
func (s *ReminderScheduler) Start() error {
	s.logger.Info("Starting reminder scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpecReminders, s.RunOnce)
	if err != nil {
		return fmt.Errorf("could not add reminder cron job %q: %w", s.cronSpecReminders, err)
	}

	s.cronEngine.Start()
	s.logger.WithField("spec", s.cronSpecReminders).Info("Reminder scheduler started")
	return nil
}

// RunOnce executes one scheduled run of every kind for today.
func (s *ReminderScheduler) RunOnce() {
	s.logger.Info("Cron job triggered for scale reminders.")
	ctx, cancel := context.WithTimeout(context.Background(), reminderJobTimeout)
	defer cancel()

	result, err := s.reminderService.Run(ctx, app.RunRequest{Trigger: app.TriggerCron})
	if err != nil {
		s.logger.WithError(err).Error("Scheduled reminder run failed")
		return
	}
	if s.reporter != nil {
		s.reporter.ReportRun(result)
	}
}

func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop() // waits for running jobs
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped.")
}
