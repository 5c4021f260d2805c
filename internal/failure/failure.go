package failure

import (
	"errors"
	"fmt"
)

// Kind tags why an appointment run stopped.
// Keep these stable; they are part of the API and event payload contracts.
type Kind string

const (
	KindDispatch              Kind = "dispatch_error"
	KindPollTimeout           Kind = "poll_timeout"
	KindCallFailed            Kind = "call_failed"
	KindTranscriptUnavailable Kind = "transcript_unavailable"
	KindExtraction            Kind = "extraction_failure"
	KindUnrecognizedFormat    Kind = "unrecognized_datetime_format"
	KindPersistence           Kind = "persistence_error"
	KindPublish               Kind = "publish_error"
	KindInternal              Kind = "internal_error"
)

// Error is a pipeline failure carrying its Kind.
// Components return *Error so the orchestrator never has to guess a kind from a message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns a failure without an underlying cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err with kind. A nil err yields nil.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf reports the kind of the first *Error in err's chain.
// Untagged errors are KindInternal.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
