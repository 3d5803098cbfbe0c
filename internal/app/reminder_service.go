// internal/app/reminder_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"escala_notifier/internal/domain/reminder"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Trigger names who asked for a run; it only shows up in logs and results.
const (
	TriggerCron     = "cron"
	TriggerManual   = "manual"
	TriggerTelegram = "telegram"
)

var ErrInvalidTestRecipient = fmt.Errorf("test run requires a dialable phone")

// ReminderService runs the reminder dispatch for a set of kinds.
type ReminderService interface {
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}

// RunLocker serializes runs of the same kind and date across processes.
type RunLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, acquired bool, err error)
}

type RunRequest struct {
	Kinds   []reminder.Kind // empty means all kinds
	Trigger string
	Test    *TestRecipient
}

// TestRecipient receives one sample message per kind instead of the roster.
type TestRecipient struct {
	Phone string
	Name  string
}

type KindResult struct {
	Kind       reminder.Kind `json:"tipo"`
	TargetDate string        `json:"data"`
	Total      int           `json:"total"`
	Sent       int           `json:"enviados"`
	Skipped    int           `json:"ignorados"`
	Errors     int           `json:"erros"`
	Locked     bool          `json:"em_execucao,omitempty"`
}

type RunResult struct {
	RunID      string       `json:"run_id"`
	Trigger    string       `json:"origem"`
	Test       bool         `json:"teste"`
	StartedAt  time.Time    `json:"inicio"`
	FinishedAt time.Time    `json:"fim"`
	Results    []KindResult `json:"resultados"`
}

// Totals sums the per-kind counters.
func (r *RunResult) Totals() KindResult {
	var t KindResult
	for _, k := range r.Results {
		t.Total += k.Total
		t.Sent += k.Sent
		t.Skipped += k.Skipped
		t.Errors += k.Errors
	}
	return t
}

// ReminderServiceImpl is the orchestrator shared by every trigger.
type ReminderServiceImpl struct {
	fetcher  *AssignmentFetcher
	gate     *IdempotencyGate
	sender   *ReminderSender
	locker   RunLocker // nil disables locking
	lockTTL  time.Duration
	location *time.Location
	now      func() time.Time
	logger   *logrus.Entry
}

func NewReminderServiceImpl(
	fetcher *AssignmentFetcher,
	gate *IdempotencyGate,
	sender *ReminderSender,
	locker RunLocker,
	location *time.Location,
	now func() time.Time,
	logger *logrus.Entry,
) *ReminderServiceImpl {
	if now == nil {
		now = time.Now
	}
	return &ReminderServiceImpl{
		fetcher:  fetcher,
		gate:     gate,
		sender:   sender,
		locker:   locker,
		lockTTL:  15 * time.Minute,
		location: location,
		now:      now,
		logger:   logger,
	}
}

// Run processes each requested kind in order and always returns per-kind counts.
// Only a malformed request yields an error.
func (s *ReminderServiceImpl) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	kinds := req.Kinds
	if len(kinds) == 0 {
		kinds = reminder.AllKinds
	}
	for _, k := range kinds {
		if !k.Valid() {
			return nil, fmt.Errorf("%w: %q", reminder.ErrInvalidKind, k)
		}
	}

	var testPhone string
	if req.Test != nil {
		testPhone = NormalizePhone(req.Test.Phone)
		if testPhone == "" {
			return nil, ErrInvalidTestRecipient
		}
	}

	result := &RunResult{
		RunID:     uuid.NewString(),
		Trigger:   req.Trigger,
		Test:      req.Test != nil,
		StartedAt: s.now(),
		Results:   make([]KindResult, 0, len(kinds)),
	}
	log := s.logger.WithFields(logrus.Fields{"run_id": result.RunID, "trigger": req.Trigger})
	log.WithField("kinds", kinds).Info("Reminder run started")

	for _, kind := range kinds {
		var kr KindResult
		if req.Test != nil {
			kr = s.runTest(ctx, result.RunID, kind, testPhone, req.Test.Name)
		} else {
			kr = s.runKind(ctx, result.RunID, kind, log)
		}
		result.Results = append(result.Results, kr)
	}

	result.FinishedAt = s.now()
	totals := result.Totals()
	log.WithFields(logrus.Fields{
		"total":   totals.Total,
		"sent":    totals.Sent,
		"skipped": totals.Skipped,
		"errors":  totals.Errors,
	}).Info("Reminder run finished")
	return result, nil
}

func (s *ReminderServiceImpl) runKind(ctx context.Context, runID string, kind reminder.Kind, runLog *logrus.Entry) KindResult {
	target := TargetDate(s.now(), s.location, kind.OffsetDays())
	kr := KindResult{Kind: kind, TargetDate: target.Format("2006-01-02")}
	log := runLog.WithFields(logrus.Fields{"kind": kind, "target_date": kr.TargetDate})

	if s.locker != nil {
		key := fmt.Sprintf("escala-lembretes:%s:%s", kind, kr.TargetDate)
		unlock, acquired, err := s.locker.TryLock(ctx, key, s.lockTTL)
		switch {
		case err != nil:
			log.WithError(err).Warn("Run lock unavailable, continuing without it")
		case !acquired:
			log.Info("Another run holds the lock for this kind, skipping")
			kr.Locked = true
			return kr
		default:
			defer func() {
				// the run context may already be done; release with a fresh one
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := unlock(releaseCtx); err != nil {
					log.WithError(err).Warn("Failed to release run lock")
				}
			}()
		}
	}

	items, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		log.WithError(err).Error("Failed to fetch assignments")
		kr.Errors++
		return kr
	}
	kr.Total = len(items)
	if len(items) == 0 {
		log.Info("No assignments due")
		return kr
	}

	gated, err := s.gate.Filter(ctx, items, kind)
	if err != nil {
		log.WithError(err).Error("Failed to check reminder log")
		kr.Errors++
		return kr
	}
	kr.Skipped = len(gated.Blocked)

	for i, item := range gated.Eligible {
		if err := ctx.Err(); err != nil {
			remaining := len(gated.Eligible) - i
			log.WithError(err).WithField("remaining", remaining).Warn("Run interrupted")
			// not attempted; the next run picks them up
			kr.Skipped += remaining
			break
		}
		switch s.sender.Deliver(ctx, runID, kind, item) {
		case OutcomeSent:
			kr.Sent++
		case OutcomeFailed:
			kr.Errors++
		case OutcomeSkipped:
			kr.Skipped++
		}
	}

	log.WithFields(logrus.Fields{
		"total":   kr.Total,
		"sent":    kr.Sent,
		"skipped": kr.Skipped,
		"errors":  kr.Errors,
	}).Info("Kind processed")
	return kr
}

func (s *ReminderServiceImpl) runTest(ctx context.Context, runID string, kind reminder.Kind, phone, name string) KindResult {
	target := TargetDate(s.now(), s.location, kind.OffsetDays())
	kr := KindResult{Kind: kind, TargetDate: target.Format("2006-01-02"), Total: 1}

	if name == "" {
		name = "Voluntário"
	}
	item := &reminder.AssignmentItem{
		SlotID:        "teste",
		SlotTitle:     "Culto de teste",
		SlotDate:      target,
		SlotTime:      "19:30",
		Location:      "Igreja",
		PersonName:    name,
		Phone:         phone,
		Roles:         []string{"Teste"},
		LeaderContact: s.fetcher.defaultLeader,
	}
	switch s.sender.SendTest(ctx, runID, kind, item) {
	case OutcomeSent:
		kr.Sent++
	default:
		kr.Errors++
	}
	return kr
}
