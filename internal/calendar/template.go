package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/teambition/rrule-go"

	"appointment-caller/internal/config"
)

// Template holds the event fields that do not depend on the call outcome.
type Template struct {
	Calendar    string
	Title       string
	Description string
	Location    string
	TimeZone    string
	Visibility  string

	RemindersMethod        string
	MinutesBeforeReminders int
	Color                  int
	ShowMeAs               string
	GuestsCanModifyEvent   bool
	RecurrenceRule         string
	AddConferencing        string
}

func DefaultTemplate() Template {
	return Template{
		Calendar:               "Your Calendar Name",
		Title:                  "Appointment with Client",
		Description:            "Discussion about the project requirements and timelines.",
		Location:               "India",
		TimeZone:               "Asia/Kolkata",
		Visibility:             "public",
		RemindersMethod:        "email",
		MinutesBeforeReminders: 30,
		Color:                  5,
		ShowMeAs:               "busy",
		GuestsCanModifyEvent:   false,
		RecurrenceRule:         "RRULE:FREQ=DAILY;INTERVAL=1;COUNT=1",
		AddConferencing:        "yes",
	}
}

// TemplateFromConfig overlays the configured presentation fields on the defaults.
func TemplateFromConfig(cfg config.CalendarConfig) Template {
	t := DefaultTemplate()
	if cfg.Name != "" {
		t.Calendar = cfg.Name
	}
	if cfg.Title != "" {
		t.Title = cfg.Title
	}
	if cfg.Description != "" {
		t.Description = cfg.Description
	}
	if cfg.Location != "" {
		t.Location = cfg.Location
	}
	if cfg.TimeZone != "" {
		t.TimeZone = cfg.TimeZone
	}
	return t
}

var ErrInvalidTemplate = errors.New("calendar: invalid template")

func (t Template) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTemplate)
	}
	if _, err := t.Zone(); err != nil {
		return err
	}
	if t.MinutesBeforeReminders < 0 {
		return fmt.Errorf("%w: minutes_before_reminders must be >= 0", ErrInvalidTemplate)
	}
	if _, err := t.Recurrence(); err != nil {
		return err
	}
	return nil
}

// Zone resolves TimeZone.
func (t Template) Zone() (*time.Location, error) {
	loc, err := time.LoadLocation(t.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q", ErrInvalidTemplate, t.TimeZone)
	}
	return loc, nil
}

// Recurrence parses RecurrenceRule. An empty rule means a single occurrence.
func (t Template) Recurrence() (*rrule.ROption, error) {
	raw := strings.TrimSpace(t.RecurrenceRule)
	if raw == "" {
		return nil, nil
	}
	opt, err := rrule.StrToROption(strings.TrimPrefix(raw, "RRULE:"))
	if err != nil {
		return nil, fmt.Errorf("%w: recurrence rule %q: %v", ErrInvalidTemplate, raw, err)
	}
	return opt, nil
}
