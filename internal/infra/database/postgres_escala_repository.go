package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"escala_notifier/internal/domain/escala"

	"github.com/lib/pq"
)

// PostgresEscalaRepository reads links, slots and role assignments.
type PostgresEscalaRepository struct {
	db       *sql.DB
	location *time.Location
}

func NewPostgresEscalaRepository(db *sql.DB, location *time.Location) *PostgresEscalaRepository {
	return &PostgresEscalaRepository{db: db, location: location}
}

func (r *PostgresEscalaRepository) ListPublishedLinks(ctx context.Context, month, year int) ([]*escala.Link, error) {
	query := `SELECT l.id, l.church_id, COALESCE(c.nome, ''), l.mes, l.ano, l.status, l.lider_nome, l.lider_telefone
               FROM escalas_links l
               LEFT JOIN churches c ON c.id = l.church_id
               WHERE l.mes = $1 AND l.ano = $2 AND l.status = $3
               ORDER BY l.id`
	rows, err := r.db.QueryContext(ctx, query, month, year, escala.LinkStatusPublished)
	if err != nil {
		return nil, fmt.Errorf("error querying published links: %w", err)
	}
	defer rows.Close()

	links := make([]*escala.Link, 0)
	for rows.Next() {
		l := &escala.Link{}
		if err := rows.Scan(&l.ID, &l.ChurchID, &l.ChurchName, &l.Month, &l.Year, &l.Status, &l.LeaderName, &l.LeaderPhone); err != nil {
			return nil, fmt.Errorf("error scanning link row: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating link rows: %w", err)
	}
	return links, nil
}

func (r *PostgresEscalaRepository) ListSlotsOnDate(ctx context.Context, linkIDs []string, date time.Time) ([]*escala.Slot, error) {
	if len(linkIDs) == 0 {
		return []*escala.Slot{}, nil
	}
	query := `SELECT id, link_id, to_char(data, 'YYYY-MM-DD'), COALESCE(hora::text, ''), COALESCE(titulo, ''), local
               FROM escalas_slots
               WHERE link_id = ANY($1::uuid[]) AND data = $2::date
               ORDER BY hora, id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(linkIDs), date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("error querying slots: %w", err)
	}
	defer rows.Close()

	slots := make([]*escala.Slot, 0)
	for rows.Next() {
		s := &escala.Slot{}
		var rawDate string
		if err := rows.Scan(&s.ID, &s.LinkID, &rawDate, &s.Time, &s.Title, &s.Location); err != nil {
			return nil, fmt.Errorf("error scanning slot row: %w", err)
		}
		if s.Date, err = scanDate(rawDate, r.location); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slot rows: %w", err)
	}
	return slots, nil
}

func (r *PostgresEscalaRepository) ListAssignments(ctx context.Context, slotIDs []string) ([]*escala.RoleAssignment, error) {
	if len(slotIDs) == 0 {
		return []*escala.RoleAssignment{}, nil
	}
	query := `SELECT slot_id, person_id, COALESCE(funcao, '')
               FROM escalas_atribuicoes
               WHERE slot_id = ANY($1::uuid[]) AND person_id IS NOT NULL
               ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(slotIDs))
	if err != nil {
		return nil, fmt.Errorf("error querying role assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]*escala.RoleAssignment, 0)
	for rows.Next() {
		a := &escala.RoleAssignment{}
		if err := rows.Scan(&a.SlotID, &a.PersonID, &a.Role); err != nil {
			return nil, fmt.Errorf("error scanning role assignment row: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating role assignment rows: %w", err)
	}
	return assignments, nil
}
