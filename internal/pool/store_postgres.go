package pool

import (
	"context"
	"database/sql"
	"fmt"

	"eligo/internal/linkage"
)

// PostgresStore loads the candidate pool from PostgreSQL. Rows are ordered
// by insertion id so the pool order is stable across calls.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed pool store.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle is required")
	}
	return &PostgresStore{db: db}, nil
}

const listQuery = `
SELECT id, name, dob, state, address, outcome
FROM candidate_records
ORDER BY seq`

// List returns every candidate record in stable order.
func (s *PostgresStore) List(ctx context.Context) ([]linkage.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, listQuery)
	if err != nil {
		return nil, fmt.Errorf("list candidate records: %w", err)
	}
	defer rows.Close()

	var records []linkage.Candidate
	for rows.Next() {
		var c linkage.Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.DOB, &c.State, &c.Address, &c.Outcome); err != nil {
			return nil, fmt.Errorf("scan candidate record: %w", err)
		}
		records = append(records, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate records: %w", err)
	}
	return records, nil
}

// Health verifies database connectivity.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
