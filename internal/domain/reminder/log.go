package reminder

import (
	"database/sql"
	"time"
)

// Status of a reminder log row.
type Status string

const (
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending" // claimed, send in flight
)

// RetryBackoff is how long a failed (or claimed) key stays blocked.
const RetryBackoff = 30 * time.Minute

// LogEntry is the idempotency row for (slot, slot date, person, kind).
// Corresponds to the 'escala_lembrete_logs' table; the four key columns carry a unique constraint.
type LogEntry struct {
	ID         int64
	SlotID     string // evento_id
	SlotDate   time.Time
	PersonID   string
	Kind       Kind // template_kind
	Status     Status
	StatusCode sql.NullInt32
	SentAt     time.Time
}

// DispatchLogEntry is an append-only audit row for every outbound attempt.
// Corresponds to the 'whatsapp_dispatch_logs' table.
type DispatchLogEntry struct {
	ID           string // uuid
	RunID        string
	Kind         Kind
	SlotID       sql.NullString
	PersonID     sql.NullString
	Phone        string
	MessageID    string
	Variables    map[string]string
	Status       Status
	StatusCode   sql.NullInt32
	ResponseBody sql.NullString
	Test         bool
	CreatedAt    time.Time
}
