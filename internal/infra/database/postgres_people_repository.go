package database

import (
	"context"
	"database/sql"
	"fmt"

	"escala_notifier/internal/domain/escala"

	"github.com/lib/pq"
)

type PostgresPeopleRepository struct {
	db *sql.DB
}

func NewPostgresPeopleRepository(db *sql.DB) *PostgresPeopleRepository {
	return &PostgresPeopleRepository{db: db}
}

// ListByIDs returns the people found; unknown ids are simply absent.
func (r *PostgresPeopleRepository) ListByIDs(ctx context.Context, ids []string) ([]*escala.Person, error) {
	if len(ids) == 0 {
		return []*escala.Person{}, nil
	}
	query := `SELECT id, COALESCE(nome, ''), telefone FROM people WHERE id = ANY($1::uuid[])`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error querying people: %w", err)
	}
	defer rows.Close()

	people := make([]*escala.Person, 0, len(ids))
	for rows.Next() {
		p := &escala.Person{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Phone); err != nil {
			return nil, fmt.Errorf("error scanning person row: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating people rows: %w", err)
	}
	return people, nil
}
