package app

import (
	"context"
	"fmt"
	"time"

	"escala_notifier/internal/domain/reminder"
)

// GateResult splits a batch into items to send and items to skip.
type GateResult struct {
	Eligible []*reminder.AssignmentItem
	Blocked  []*reminder.AssignmentItem
}

// IdempotencyGate filters out keys already sent or still inside the retry back-off.
type IdempotencyGate struct {
	logRepo reminder.LogRepository
	backoff time.Duration
	now     func() time.Time
}

func NewIdempotencyGate(lr reminder.LogRepository, backoff time.Duration, now func() time.Time) *IdempotencyGate {
	if now == nil {
		now = time.Now
	}
	return &IdempotencyGate{logRepo: lr, backoff: backoff, now: now}
}

// Filter reads the log rows for the batch and classifies every item.
// A key repeated inside the batch is only eligible once.
func (g *IdempotencyGate) Filter(ctx context.Context, items []*reminder.AssignmentItem, kind reminder.Kind) (*GateResult, error) {
	result := &GateResult{
		Eligible: make([]*reminder.AssignmentItem, 0, len(items)),
		Blocked:  make([]*reminder.AssignmentItem, 0),
	}
	if len(items) == 0 {
		return result, nil
	}

	slotIDs := make([]string, 0, len(items))
	personIDs := make([]string, 0, len(items))
	seenSlot := make(map[string]bool)
	seenPerson := make(map[string]bool)
	for _, it := range items {
		if !seenSlot[it.SlotID] {
			seenSlot[it.SlotID] = true
			slotIDs = append(slotIDs, it.SlotID)
		}
		if !seenPerson[it.PersonID] {
			seenPerson[it.PersonID] = true
			personIDs = append(personIDs, it.PersonID)
		}
	}

	entries, err := g.logRepo.ListForKeys(ctx, kind, slotIDs, personIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to read reminder log for %s: %w", kind, err)
	}
	blocked := BlockedKeys(entries, g.now(), g.backoff)

	queued := make(map[reminder.Key]bool, len(items))
	for _, it := range items {
		k := it.Key(kind)
		if blocked[k] || queued[k] {
			result.Blocked = append(result.Blocked, it)
			continue
		}
		queued[k] = true
		result.Eligible = append(result.Eligible, it)
	}
	return result, nil
}

// BlockedKeys reports the keys that must not be sent at now:
// any sent row blocks forever, a failed or pending row blocks until backoff has elapsed.
func BlockedKeys(entries []*reminder.LogEntry, now time.Time, backoff time.Duration) map[reminder.Key]bool {
	blocked := make(map[reminder.Key]bool, len(entries))
	for _, e := range entries {
		k := reminder.Key{SlotID: e.SlotID, PersonID: e.PersonID, Kind: e.Kind}
		switch e.Status {
		case reminder.StatusSent:
			blocked[k] = true
		case reminder.StatusFailed, reminder.StatusPending:
			if now.Sub(e.SentAt) < backoff {
				blocked[k] = true
			}
		}
	}
	return blocked
}
