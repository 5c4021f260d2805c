package booking

import (
	"appointment-caller/internal/appointments"
	"appointment-caller/internal/calls"
	"appointment-caller/internal/failure"
)

// Stage is a step of one booking run. Runs move strictly forward through
// the stages; StageFailed is reachable from any of them.
type Stage string

const (
	StageDispatching Stage = "dispatching"
	StagePolling     Stage = "polling"
	StageExtracting  Stage = "extracting"
	StageNormalizing Stage = "normalizing"
	StagePersisting  Stage = "persisting"
	StagePublishing  Stage = "publishing"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

type Status string

const (
	StatusDone   Status = "done"
	StatusFailed Status = "failed"
)

// Request starts one booking run.
type Request struct {
	Contact calls.Contact `json:"contact"`

	// ActorUserID is the operator who asked for the call, if known.
	ActorUserID string `json:"-"`
}

// Failure describes why a run stopped.
type Failure struct {
	Kind    failure.Kind `json:"kind"`
	Stage   Stage        `json:"stage"`
	Message string       `json:"message"`

	// RecordID is set when a record was stored before the failure (publish errors).
	RecordID string `json:"record_id,omitempty"`
}

// Result is the outcome of a run: Record on success, Failure otherwise. Never both.
type Result struct {
	RunID  string `json:"run_id"`
	Status Status `json:"status"`
	CallID string `json:"call_id,omitempty"`

	Record  *appointments.Record `json:"record,omitempty"`
	Failure *Failure             `json:"failure,omitempty"`
}

func (r Result) OK() bool { return r.Status == StatusDone && r.Record != nil }
