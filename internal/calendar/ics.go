package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"appointment-caller/internal/appointments"
	"appointment-caller/internal/normalize"
)

const productID = "-//appointment-caller//Appointments//EN"

// ToICalendar renders a record as a single-event calendar. Start and End are
// read as wall-clock times in the template's time zone.
func ToICalendar(rec appointments.Record, t Template, now time.Time) (*ical.Calendar, error) {
	if rec.ID == "" || rec.Start == "" || rec.End == "" {
		return nil, ErrIncompleteRecord
	}
	loc, err := t.Zone()
	if err != nil {
		return nil, err
	}
	start, err := time.ParseInLocation(normalize.Layout, rec.Start, loc)
	if err != nil {
		return nil, fmt.Errorf("calendar: parse start %q: %w", rec.Start, err)
	}
	end, err := time.ParseInLocation(normalize.Layout, rec.End, loc)
	if err != nil {
		return nil, fmt.Errorf("calendar: parse end %q: %w", rec.End, err)
	}
	if _, err := t.Recurrence(); err != nil {
		return nil, err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	if t.Calendar != "" {
		cal.Props.SetText("X-WR-CALNAME", t.Calendar)
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, rec.ID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start)
	event.Props.SetDateTime(ical.PropDateTimeEnd, end)
	event.Props.SetText(ical.PropSummary, t.Title)
	if t.Description != "" {
		event.Props.SetText(ical.PropDescription, t.Description)
	}
	if t.Location != "" {
		event.Props.SetText(ical.PropLocation, t.Location)
	}
	if t.Visibility != "" {
		event.Props.SetText(ical.PropClass, strings.ToUpper(t.Visibility))
	}
	if t.ShowMeAs == "free" {
		event.Props.SetText(ical.PropTransparency, "TRANSPARENT")
	} else {
		event.Props.SetText(ical.PropTransparency, "OPAQUE")
	}
	if rule := strings.TrimPrefix(strings.TrimSpace(t.RecurrenceRule), "RRULE:"); rule != "" {
		p := ical.NewProp(ical.PropRecurrenceRule)
		p.Value = rule
		event.Props.Set(p)
	}
	if rec.Email != "" {
		p := ical.NewProp(ical.PropAttendee)
		p.Value = "mailto:" + rec.Email
		event.Props.Add(p)
	}
	if t.MinutesBeforeReminders > 0 {
		event.Children = append(event.Children, reminder(t, rec.Email))
	}

	cal.Children = append(cal.Children, event.Component)
	return cal, nil
}

func reminder(t Template, email string) *ical.Component {
	alarm := ical.NewComponent(ical.CompAlarm)
	action := "DISPLAY"
	if t.RemindersMethod == "email" && email != "" {
		action = "EMAIL"
	}
	alarm.Props.SetText(ical.PropAction, action)
	trigger := ical.NewProp(ical.PropTrigger)
	trigger.Value = fmt.Sprintf("-PT%dM", t.MinutesBeforeReminders)
	alarm.Props.Set(trigger)
	alarm.Props.SetText(ical.PropDescription, t.Title)
	if action == "EMAIL" {
		alarm.Props.SetText(ical.PropSummary, t.Title)
		p := ical.NewProp(ical.PropAttendee)
		p.Value = "mailto:" + email
		alarm.Props.Add(p)
	}
	return alarm
}

// WriteICS encodes the record's calendar to w.
func WriteICS(w io.Writer, rec appointments.Record, t Template, now time.Time) error {
	cal, err := ToICalendar(rec, t, now)
	if err != nil {
		return err
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("calendar: encode ics: %w", err)
	}
	return nil
}
