package reminder

import (
	"context"
	"time"
)

// LogRepository persists the idempotency log.
type LogRepository interface {
	// ListForKeys returns every row of the given kind whose slot and person are in the given sets.
	ListForKeys(ctx context.Context, kind Kind, slotIDs, personIDs []string) ([]*LogEntry, error)
	// Upsert writes the entry on its (slot, slot date, person, kind) key, replacing any previous attempt.
	Upsert(ctx context.Context, entry *LogEntry) error
	// Claim marks the key pending when it is unknown, or not sent and older than backoff.
	// It reports false when another attempt holds or already completed the key.
	Claim(ctx context.Context, entry *LogEntry, backoff time.Duration) (bool, error)
	// CountByStatusSince aggregates rows touched since the given time, per kind and status.
	CountByStatusSince(ctx context.Context, since time.Time) (map[Kind]map[Status]int, error)
}

// DispatchLogRepository appends audit rows.
type DispatchLogRepository interface {
	Append(ctx context.Context, entry *DispatchLogEntry) error
}
