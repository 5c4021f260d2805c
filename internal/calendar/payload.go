package calendar

import (
	"errors"

	"appointment-caller/internal/appointments"
)

// Payload is the calendar-event description sent to the webhook sink.
type Payload struct {
	Calendar      string `json:"calendar"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Location      string `json:"location"`
	StartDateTime string `json:"start_date_time"`
	EndDateTime   string `json:"end_date_time"`
	TimeZone      string `json:"time_zone"`
	Visibility    string `json:"visibility"`

	// Guests is the contact email collected on the call.
	Guests string `json:"guests"`

	RemindersMethod        string `json:"reminders_method"`
	MinutesBeforeReminders int    `json:"minutes_before_reminders"`
	Color                  int    `json:"color"`
	ShowMeAsFreeOrBusy     string `json:"show_me_as_free_or_busy"`
	GuestsCanModifyEvent   bool   `json:"guests_can_modify_event"`
	EventRecurrenceRule    string `json:"event_recurrence_rule"`
	AddConferencing        string `json:"add_conferencing"`

	RecordID string `json:"record_id"`
}

var ErrIncompleteRecord = errors.New("calendar: record has no id or parsed times")

// Build derives the payload from a stored record. It is deterministic: the
// same record and template always give the same payload.
func Build(rec appointments.Record, t Template) (Payload, error) {
	if rec.ID == "" || rec.Start == "" || rec.End == "" {
		return Payload{}, ErrIncompleteRecord
	}
	return Payload{
		Calendar:               t.Calendar,
		Title:                  t.Title,
		Description:            t.Description,
		Location:               t.Location,
		StartDateTime:          rec.Start,
		EndDateTime:            rec.End,
		TimeZone:               t.TimeZone,
		Visibility:             t.Visibility,
		Guests:                 rec.Email,
		RemindersMethod:        t.RemindersMethod,
		MinutesBeforeReminders: t.MinutesBeforeReminders,
		Color:                  t.Color,
		ShowMeAsFreeOrBusy:     t.ShowMeAs,
		GuestsCanModifyEvent:   t.GuestsCanModifyEvent,
		EventRecurrenceRule:    t.RecurrenceRule,
		AddConferencing:        t.AddConferencing,
		RecordID:               rec.ID,
	}, nil
}
