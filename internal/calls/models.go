package calls

import (
	"strings"
	"time"
)

// Request is one outbound call order. It is built by the dispatcher and
// consumed exactly once; nothing mutates it afterwards.
type Request struct {
	PhoneNumber   string `json:"phone_number"`
	VoiceID       string `json:"voice_id"`
	Script        string `json:"script"`
	ReduceLatency bool   `json:"reduce_latency"`
}

// Session tracks a placed call from dispatch until the transcript is read.
type Session struct {
	CallID string `json:"call_id"`
	Status Status `json:"status"`

	Transcript []Utterance `json:"transcript,omitempty"`

	DispatchedAt time.Time `json:"dispatched_at"`
}

type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type Utterance struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// TranscriptText joins utterance texts with newlines, in call order.
func (s Session) TranscriptText() string {
	return JoinTranscript(s.Transcript)
}

func JoinTranscript(utterances []Utterance) string {
	parts := make([]string, 0, len(utterances))
	for _, u := range utterances {
		parts = append(parts, u.Text)
	}
	return strings.Join(parts, "\n")
}
