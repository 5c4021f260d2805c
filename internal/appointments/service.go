package appointments

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"appointment-caller/internal/failure"
	"appointment-caller/internal/normalize"
)

var (
	ErrNotFound  = errors.New("appointments: record not found")
	ErrDuplicate = errors.New("appointments: duplicate record id")
	ErrInvalidID = errors.New("appointments: invalid record id")
)

// Repository is the persistence contract for appointment records.
// It is insert-only: there are no Update/Delete methods.
type Repository interface {
	Insert(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
}

type Service struct {
	repo  Repository
	log   *slog.Logger
	clock func() time.Time
	newID func() string
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log, clock: time.Now, newID: uuid.NewString}
}

// NewRecord is the input for Create: the spoken values plus their parsed span.
type NewRecord struct {
	DateText string
	TimeText string
	Email    string
	CallID   string
	Span     normalize.Span
}

// Create persists a new record. Every call creates a distinct record; retries
// of the same appointment are not deduplicated.
//
// Errors carry failure.KindPersistence.
func (s *Service) Create(ctx context.Context, in NewRecord) (Record, error) {
	if s.repo == nil {
		return Record{}, failure.New(failure.KindPersistence, "record store not configured")
	}
	if in.Span.Start.IsZero() {
		return Record{}, failure.New(failure.KindPersistence, "record has no parsed start time")
	}

	rec := Record{
		ID:        s.newID(),
		DateText:  in.DateText,
		TimeText:  in.TimeText,
		Email:     strings.TrimSpace(in.Email),
		Start:     in.Span.StartText(),
		End:       in.Span.EndText(),
		CallID:    in.CallID,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return Record{}, failure.Wrap(failure.KindPersistence, err, "store appointment record")
	}

	s.log.InfoContext(ctx, "appointment record stored", "record_id", rec.ID, "start", rec.Start)
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	if s.repo == nil {
		return Record{}, errors.New("appointments: repository not configured")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}
