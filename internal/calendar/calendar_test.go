package calendar

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appointment-caller/internal/appointments"
	"appointment-caller/internal/config"
)

func sampleRecord() appointments.Record {
	return appointments.Record{
		ID:       "6f1c2e4e-2b0a-4d6c-9f4e-1d2a3b4c5d6e",
		DateText: "15th August 2024",
		TimeText: "2 PM",
		Email:    "asha@example.com",
		Start:    "2024-08-15T14:00:00",
		End:      "2024-08-15T15:00:00",
	}
}

func TestBuild_WireFields(t *testing.T) {
	p, err := Build(sampleRecord(), DefaultTemplate())
	require.NoError(t, err)

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	assert.Equal(t, "2024-08-15T14:00:00", m["start_date_time"])
	assert.Equal(t, "2024-08-15T15:00:00", m["end_date_time"])
	assert.Equal(t, "asha@example.com", m["guests"])
	assert.Equal(t, "6f1c2e4e-2b0a-4d6c-9f4e-1d2a3b4c5d6e", m["record_id"])
	assert.Equal(t, "Asia/Kolkata", m["time_zone"])
	assert.Equal(t, "RRULE:FREQ=DAILY;INTERVAL=1;COUNT=1", m["event_recurrence_rule"])
	assert.Equal(t, float64(30), m["minutes_before_reminders"])
	assert.Equal(t, float64(5), m["color"])
	assert.Equal(t, false, m["guests_can_modify_event"])
	assert.Equal(t, "busy", m["show_me_as_free_or_busy"])
	assert.Equal(t, "yes", m["add_conferencing"])

	for _, key := range []string{"calendar", "title", "description", "location", "visibility", "reminders_method"} {
		assert.Contains(t, m, key)
	}
	assert.Len(t, m, 17)
}

func TestBuild_IsDeterministic(t *testing.T) {
	a, err := Build(sampleRecord(), DefaultTemplate())
	require.NoError(t, err)
	b, err := Build(sampleRecord(), DefaultTemplate())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuild_RequiresStoredRecord(t *testing.T) {
	rec := sampleRecord()
	rec.ID = ""
	_, err := Build(rec, DefaultTemplate())
	assert.ErrorIs(t, err, ErrIncompleteRecord)
}

func TestTemplateFromConfig_Overlays(t *testing.T) {
	tpl := TemplateFromConfig(config.CalendarConfig{Name: "Clinic", TimeZone: "Europe/Berlin"})
	assert.Equal(t, "Clinic", tpl.Calendar)
	assert.Equal(t, "Europe/Berlin", tpl.TimeZone)
	assert.Equal(t, "Appointment with Client", tpl.Title)
	require.NoError(t, tpl.Validate())
}

func TestTemplateFromConfig_UnsetKeepsDefaults(t *testing.T) {
	cfg := config.Config{
		App:     config.AppConfig{Env: "local", Port: 8080},
		DB:      config.DBConfig{Host: "localhost", Port: 5432, User: "u", Name: "n"},
		Auth:    config.AuthConfig{JWTSecret: "s"},
		Voice:   config.VoiceConfig{APIKey: "v"},
		LLM:     config.LLMConfig{APIKey: "l"},
		Webhook: config.WebhookConfig{URL: "https://hooks.example.com/x"},
	}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultTemplate(), TemplateFromConfig(cfg.Calendar))
}

func TestTemplate_Validate(t *testing.T) {
	require.NoError(t, DefaultTemplate().Validate())

	bad := DefaultTemplate()
	bad.RecurrenceRule = "RRULE:FREQ=SOMETIMES"
	assert.True(t, errors.Is(bad.Validate(), ErrInvalidTemplate))

	bad = DefaultTemplate()
	bad.TimeZone = "Nowhere/Land"
	assert.True(t, errors.Is(bad.Validate(), ErrInvalidTemplate))

	opt, err := DefaultTemplate().Recurrence()
	require.NoError(t, err)
	assert.Equal(t, 1, opt.Count)
}

func TestWriteICS(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, WriteICS(&buf, sampleRecord(), DefaultTemplate(), now))

	out := buf.String()
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"BEGIN:VEVENT",
		"UID:6f1c2e4e-2b0a-4d6c-9f4e-1d2a3b4c5d6e",
		"TZID=Asia/Kolkata",
		"20240815T140000",
		"20240815T150000",
		"SUMMARY:Appointment with Client",
		"RRULE:FREQ=DAILY;INTERVAL=1;COUNT=1",
		"mailto:asha@example.com",
		"BEGIN:VALARM",
		"TRIGGER:-PT30M",
		"END:VCALENDAR",
	} {
		assert.True(t, strings.Contains(out, want), "expected %q in ics output:\n%s", want, out)
	}
}

func TestWriteICS_RejectsIncompleteRecord(t *testing.T) {
	rec := sampleRecord()
	rec.Start = ""
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteICS(&buf, rec, DefaultTemplate(), time.Now()), ErrIncompleteRecord)
}
