package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by PostgresRepo.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepo writes to pipeline_audit_events, which only ever sees INSERTs.
type PostgresRepo struct {
	db DB
}

func NewPostgresRepo(db DB) *PostgresRepo { return &PostgresRepo{db: db} }

const insertEventSQL = `INSERT INTO pipeline_audit_events
	(id, run_id, type, stage, actor_user_id, call_id, record_id, failure_kind, message, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const listEventsSQL = `SELECT id::text, run_id::text, type, stage, actor_user_id, call_id, record_id, failure_kind, message, created_at
	FROM pipeline_audit_events
	WHERE created_at >= $1 AND created_at < $2
	ORDER BY created_at, id`

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	_, err := r.db.Exec(ctx, insertEventSQL,
		e.ID, e.RunID, string(e.Type), e.Stage,
		e.ActorUserID, e.CallID, e.RecordID, e.FailureKind, e.Message,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}

func (r *PostgresRepo) List(ctx context.Context, from, to time.Time) ([]Event, error) {
	rows, err := r.db.Query(ctx, listEventsSQL, from, to)
	if err != nil {
		return nil, fmt.Errorf("audit: list events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e   Event
			typ string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &typ, &e.Stage, &e.ActorUserID, &e.CallID, &e.RecordID, &e.FailureKind, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		e.Type = EventType(typ)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: list events: %w", err)
	}
	return out, nil
}
