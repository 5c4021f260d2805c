package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool used by PostgresRepo.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepo stores one jsonb document per record in appointment_records.
type PostgresRepo struct {
	db DB
}

func NewPostgresRepo(db DB) *PostgresRepo { return &PostgresRepo{db: db} }

const insertRecordSQL = `INSERT INTO appointment_records (id, document, created_at) VALUES ($1, $2, $3)`

const selectRecordSQL = `SELECT id::text, document, created_at FROM appointment_records WHERE id = $1`

func (r *PostgresRepo) Insert(ctx context.Context, rec Record) error {
	doc, err := json.Marshal(rec.document())
	if err != nil {
		return fmt.Errorf("appointments: encode document: %w", err)
	}

	tag, err := r.db.Exec(ctx, insertRecordSQL, rec.ID, doc, rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("appointments: insert record: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("appointments: insert record: %d rows affected", tag.RowsAffected())
	}
	return nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Record, error) {
	var (
		gotID     string
		raw       []byte
		createdAt time.Time
	)
	err := r.db.QueryRow(ctx, selectRecordSQL, id).Scan(&gotID, &raw, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("appointments: get record: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Record{}, fmt.Errorf("appointments: decode document %s: %w", gotID, err)
	}
	return doc.record(gotID, createdAt.UTC()), nil
}
