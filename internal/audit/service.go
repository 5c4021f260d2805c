package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, from, to time.Time) ([]Event, error)
}

// Service records internal audit information for booking runs.
//
// IMPORTANT:
// - Callers should treat audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.RunID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" || e.Stage == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogStage records that a run entered a stage.
func (s *Service) LogStage(ctx context.Context, runID, actorUserID, stage, callID string) error {
	return s.Append(ctx, Event{
		RunID:       runID,
		Type:        EventTypeStage,
		Stage:       stage,
		ActorUserID: actorUserID,
		CallID:      callID,
	})
}

// LogOutcome records the terminal state of a run. failureKind is empty on success.
func (s *Service) LogOutcome(ctx context.Context, runID, actorUserID, stage, callID, recordID, failureKind, message string) error {
	return s.Append(ctx, Event{
		RunID:       runID,
		Type:        EventTypeOutcome,
		Stage:       stage,
		ActorUserID: actorUserID,
		CallID:      callID,
		RecordID:    recordID,
		FailureKind: failureKind,
		Message:     message,
	})
}

// List returns events in [from, to).
func (s *Service) List(ctx context.Context, from, to time.Time) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	return s.repo.List(ctx, from, to)
}
