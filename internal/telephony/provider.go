package telephony

import (
	"context"
	"strings"
)

// Provider is the voice-call provider boundary used by the call dispatcher and poller.
//
// Rules:
// - No provider HTTP calls outside telephony adapters.
// - Non-success HTTP statuses are reported in results, not as errors; errors mean transport/decoding failures.
type Provider interface {
	Name() string

	PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error)
	CallDetails(ctx context.Context, callID string) (CallDetails, error)
}

// PlaceCallRequest is the body sent to start an outbound AI-voice call.
type PlaceCallRequest struct {
	PhoneNumber string `json:"phone_number"`

	// Task is the full call script the voice agent follows.
	Task string `json:"task"`

	VoiceID       string `json:"voice_id"`
	ReduceLatency bool   `json:"reduce_latency"`
}

type PlaceCallResult struct {
	HTTPStatus int `json:"http_status"`

	// Accepted is true when the provider reported a truthy status field.
	Accepted bool   `json:"accepted"`
	CallID   string `json:"call_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// OK reports whether the provider accepted the call and assigned an id.
func (r PlaceCallResult) OK() bool {
	return r.HTTPStatus >= 200 && r.HTTPStatus < 300 && r.Accepted && r.CallID != ""
}

// CallDetails is a status/transcript snapshot for one call.
type CallDetails struct {
	HTTPStatus int    `json:"http_status"`
	CallID     string `json:"call_id"`
	Status     string `json:"status"`
	Completed  bool   `json:"completed"`

	// Transcripts is nil when the provider returned no transcript field at all.
	Transcripts []TranscriptEntry `json:"transcripts"`
}

type TranscriptEntry struct {
	Text string `json:"text"`
	User string `json:"user"`
}

// Provider-reported call statuses. Providers are not consistent about casing or
// separators, so compare through NormalizeStatus.
const (
	StatusQueued     = "queued"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusError      = "error"
	StatusNoAnswer   = "no_answer"
	StatusBusy       = "busy"
	StatusCanceled   = "canceled"
)

func NormalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	if s == "cancelled" {
		return StatusCanceled
	}
	return s
}

// IsTerminalFailure reports provider statuses that mean the call ended without a conversation.
func IsTerminalFailure(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFailed, StatusError, StatusNoAnswer, StatusBusy, StatusCanceled:
		return true
	default:
		return false
	}
}
