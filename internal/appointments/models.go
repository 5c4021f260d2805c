package appointments

import "time"

// Record is one persisted appointment outcome.
//
// Invariants:
// - ID is assigned by the store; a Record never exists without one.
// - Start/End are canonical, offset-free timestamps; End is Start plus one hour.
// - Records are insert-only.
type Record struct {
	ID string `json:"id"`

	// DateText/TimeText are the values extracted from the call, as spoken.
	DateText string `json:"date"`
	TimeText string `json:"time"`
	Email    string `json:"email"`

	Start string `json:"start_date_time"`
	End   string `json:"end_date_time"`

	CallID string `json:"call_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// document is the jsonb body stored per record.
type document struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Email  string `json:"email"`
	Start  string `json:"start_date_time"`
	End    string `json:"end_date_time"`
	CallID string `json:"call_id,omitempty"`
}

func (r Record) document() document {
	return document{
		Date:   r.DateText,
		Time:   r.TimeText,
		Email:  r.Email,
		Start:  r.Start,
		End:    r.End,
		CallID: r.CallID,
	}
}

func (d document) record(id string, createdAt time.Time) Record {
	return Record{
		ID:        id,
		DateText:  d.Date,
		TimeText:  d.Time,
		Email:     d.Email,
		Start:     d.Start,
		End:       d.End,
		CallID:    d.CallID,
		CreatedAt: createdAt,
	}
}
