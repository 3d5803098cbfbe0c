// internal/infra/database/postgres_reminder_repository.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"escala_notifier/internal/domain/reminder"

	"github.com/lib/pq"
)

// PostgresReminderLogRepository owns 'escala_lembrete_logs'.
// (evento_id, evento_data, person_id, template_kind) is unique.
type PostgresReminderLogRepository struct {
	db       *sql.DB
	location *time.Location
}

func NewPostgresReminderLogRepository(db *sql.DB, location *time.Location) *PostgresReminderLogRepository {
	return &PostgresReminderLogRepository{db: db, location: location}
}

func (r *PostgresReminderLogRepository) ListForKeys(ctx context.Context, kind reminder.Kind, slotIDs, personIDs []string) ([]*reminder.LogEntry, error) {
	if len(slotIDs) == 0 || len(personIDs) == 0 {
		return []*reminder.LogEntry{}, nil
	}
	query := `SELECT id, evento_id, to_char(evento_data, 'YYYY-MM-DD'), person_id, template_kind, status, status_code, sent_at
               FROM escala_lembrete_logs
               WHERE template_kind = $1 AND evento_id = ANY($2::uuid[]) AND person_id = ANY($3::uuid[])`
	rows, err := r.db.QueryContext(ctx, query, kind, pq.Array(slotIDs), pq.Array(personIDs))
	if err != nil {
		return nil, fmt.Errorf("error querying reminder log: %w", err)
	}
	defer rows.Close()

	entries := make([]*reminder.LogEntry, 0)
	for rows.Next() {
		e := &reminder.LogEntry{}
		var rawDate string
		if err := rows.Scan(&e.ID, &e.SlotID, &rawDate, &e.PersonID, &e.Kind, &e.Status, &e.StatusCode, &e.SentAt); err != nil {
			return nil, fmt.Errorf("error scanning reminder log row: %w", err)
		}
		if e.SlotDate, err = scanDate(rawDate, r.location); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder log rows: %w", err)
	}
	return entries, nil
}

func (r *PostgresReminderLogRepository) Upsert(ctx context.Context, e *reminder.LogEntry) error {
	query := `INSERT INTO escala_lembrete_logs (evento_id, evento_data, person_id, template_kind, status, status_code, sent_at)
               VALUES ($1, $2::date, $3, $4, $5, $6, $7)
               ON CONFLICT (evento_id, evento_data, person_id, template_kind)
               DO UPDATE SET status = EXCLUDED.status, status_code = EXCLUDED.status_code, sent_at = EXCLUDED.sent_at
               RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		e.SlotID, e.SlotDate.Format("2006-01-02"), e.PersonID, e.Kind, e.Status, e.StatusCode, e.SentAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("error upserting reminder log (slot %s, person %s, kind %s): %w", e.SlotID, e.PersonID, e.Kind, err)
	}
	return nil
}

// Claim inserts a pending row, or takes over an existing one that is not sent and whose
// last attempt is at least backoff old. No returned row means the claim was refused.
func (r *PostgresReminderLogRepository) Claim(ctx context.Context, e *reminder.LogEntry, backoff time.Duration) (bool, error) {
	query := `INSERT INTO escala_lembrete_logs (evento_id, evento_data, person_id, template_kind, status, status_code, sent_at)
               VALUES ($1, $2::date, $3, $4, $5, NULL, $6)
               ON CONFLICT (evento_id, evento_data, person_id, template_kind)
               DO UPDATE SET status = EXCLUDED.status, status_code = NULL, sent_at = EXCLUDED.sent_at
               WHERE escala_lembrete_logs.status <> $7
                 AND escala_lembrete_logs.sent_at <= EXCLUDED.sent_at - make_interval(secs => $8)
               RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		e.SlotID, e.SlotDate.Format("2006-01-02"), e.PersonID, e.Kind, reminder.StatusPending, e.SentAt,
		reminder.StatusSent, backoff.Seconds(),
	).Scan(&e.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("error claiming reminder key (slot %s, person %s, kind %s): %w", e.SlotID, e.PersonID, e.Kind, err)
	}
	return true, nil
}

func (r *PostgresReminderLogRepository) CountByStatusSince(ctx context.Context, since time.Time) (map[reminder.Kind]map[reminder.Status]int, error) {
	query := `SELECT template_kind, status, COUNT(*)
               FROM escala_lembrete_logs
               WHERE sent_at >= $1
               GROUP BY template_kind, status`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("error counting reminder log: %w", err)
	}
	defer rows.Close()

	counts := make(map[reminder.Kind]map[reminder.Status]int)
	for rows.Next() {
		var kind reminder.Kind
		var status reminder.Status
		var n int
		if err := rows.Scan(&kind, &status, &n); err != nil {
			return nil, fmt.Errorf("error scanning reminder count row: %w", err)
		}
		if counts[kind] == nil {
			counts[kind] = make(map[reminder.Status]int)
		}
		counts[kind][status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminder count rows: %w", err)
	}
	return counts, nil
}

// PostgresDispatchLogRepository appends to 'whatsapp_dispatch_logs'.
type PostgresDispatchLogRepository struct {
	db *sql.DB
}

func NewPostgresDispatchLogRepository(db *sql.DB) *PostgresDispatchLogRepository {
	return &PostgresDispatchLogRepository{db: db}
}

func (r *PostgresDispatchLogRepository) Append(ctx context.Context, e *reminder.DispatchLogEntry) error {
	vars, err := json.Marshal(e.Variables)
	if err != nil {
		return fmt.Errorf("error encoding dispatch variables: %w", err)
	}
	query := `INSERT INTO whatsapp_dispatch_logs
               (id, run_id, template_kind, evento_id, person_id, phone, message_id, variables, status, status_code, response_body, is_test, created_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, $11, $12, $13)`
	_, err = r.db.ExecContext(ctx, query,
		e.ID, e.RunID, e.Kind, e.SlotID, e.PersonID, e.Phone, e.MessageID, string(vars),
		e.Status, e.StatusCode, e.ResponseBody, e.Test, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting dispatch log: %w", err)
	}
	return nil
}
