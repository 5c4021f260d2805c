package audit

import "time"

// Event is an immutable, append-only record of one booking-run step.
//
// Invariants:
// - Events are never updated or deleted.
// - run_id is required; it ties all events of one pipeline run together.
// - Writing audit events is best-effort; callers do not fail a run on audit errors.
type Event struct {
	ID    string `json:"id" db:"id"`
	RunID string `json:"run_id" db:"run_id"`

	Type EventType `json:"type" db:"type"`

	// Stage is the pipeline stage entered (stage events) or the final state (outcome events).
	Stage string `json:"stage" db:"stage"`

	// ActorUserID is the operator who started the run, when authenticated.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`

	CallID      string `json:"call_id,omitempty" db:"call_id"`
	RecordID    string `json:"record_id,omitempty" db:"record_id"`
	FailureKind string `json:"failure_kind,omitempty" db:"failure_kind"`

	Message string `json:"message,omitempty" db:"message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeStage   EventType = "stage"
	EventTypeOutcome EventType = "outcome"
)
