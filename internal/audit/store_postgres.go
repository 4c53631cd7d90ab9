package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore persists audit events. The trail is append-only; there is
// no update or delete path.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle is required")
	}
	return &PostgresStore{db: db}, nil
}

const appendQuery = `
INSERT INTO audit_events (id, ts, action, applicant_id_hash, decision, confidence, rationale, request_id, subject, client_agent, error)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Append writes one audit event.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	rationale, err := json.Marshal(event.Rationale)
	if err != nil {
		return fmt.Errorf("marshal rationale: %w", err)
	}

	_, err = s.db.ExecContext(ctx, appendQuery,
		event.ID,
		event.Timestamp,
		string(event.Action),
		event.ApplicantIDHash,
		event.Decision,
		event.Confidence,
		rationale,
		event.RequestID,
		event.Subject,
		event.ClientAgent,
		event.Error,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

const listByApplicantQuery = `
SELECT id, ts, action, applicant_id_hash, decision, confidence, rationale, request_id, subject, client_agent, error
FROM audit_events
WHERE applicant_id_hash = $1
ORDER BY ts`

// ListByApplicant returns every event recorded for the hashed applicant ID.
func (s *PostgresStore) ListByApplicant(ctx context.Context, applicantIDHash string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, listByApplicantQuery, applicantIDHash)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

const listRecentQuery = `
SELECT id, ts, action, applicant_id_hash, decision, confidence, rationale, request_id, subject, client_agent, error
FROM audit_events
ORDER BY ts DESC
LIMIT $1`

// ListRecent returns the most recent limit events, newest first.
func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, listRecentQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			e         Event
			action    string
			rationale []byte
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &action, &e.ApplicantIDHash, &e.Decision, &e.Confidence, &rationale, &e.RequestID, &e.Subject, &e.ClientAgent, &e.Error); err != nil {
			if pqErr, ok := err.(*pq.Error); ok {
				return nil, fmt.Errorf("scan audit event (%s): %w", pqErr.Code.Name(), err)
			}
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = Action(action)
		if len(rationale) > 0 {
			if err := json.Unmarshal(rationale, &e.Rationale); err != nil {
				return nil, fmt.Errorf("unmarshal rationale: %w", err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
