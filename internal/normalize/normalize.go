// Package normalize turns the free-text date and time read out of a call
// transcript into one canonical, offset-free timestamp.
//
// Parsing is a fixed priority list: the first date/time layout pair that
// accepts the input wins, even when a later pair would also accept it.
package normalize

import (
	"regexp"
	"strings"
	"time"

	"appointment-caller/internal/extraction"
	"appointment-caller/internal/failure"
)

// Layout is the canonical timestamp layout (ISO-8601 without offset).
const Layout = "2006-01-02T15:04:05"

// AppointmentLength is added to every start to derive the end.
const AppointmentLength = time.Hour

// DateLayouts are tried in order.
var DateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January, 2006",
	"2 Jan, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2-1-2006",
	"2/1/2006",
	"2006-1-2",
}

// TimeLayouts are tried in order for each date layout.
var TimeLayouts = []string{
	"3:04 PM",
	"3 PM",
	"15:04",
	"15:04:05",
}

var ordinalSuffix = regexp.MustCompile(`(\d)(?:st|nd|rd|th)\b`)

var meridiem = regexp.MustCompile(`(?i)\b([ap])\.?m\.?`)

// StripOrdinals removes day-of-month suffixes ("15th" -> "15").
// A suffix is only removed when it ends the word, so "5thAugust" and "1stst"
// are left as-is. Without that boundary "1stst" would strip to "1st" and then
// to "1", and stripping twice would differ from stripping once.
func StripOrdinals(s string) string {
	return ordinalSuffix.ReplaceAllString(s, "$1")
}

// Span is a normalized appointment window.
type Span struct {
	Start time.Time
	End   time.Time
}

// StartText renders Start in Layout.
func (s Span) StartText() string { return s.Start.Format(Layout) }

// EndText renders End in Layout.
func (s Span) EndText() string { return s.End.Format(Layout) }

// Parse converts dateText and timeText into a Span.
// Failures are tagged failure.KindUnrecognizedFormat and name the joined input.
func Parse(dateText, timeText string) (Span, error) {
	start, err := ParseStart(dateText, timeText)
	if err != nil {
		return Span{}, err
	}
	return Span{Start: start, End: start.Add(AppointmentLength)}, nil
}

// ParseFields parses extracted date and time fields. A field that could not
// be extracted has no text to parse, so it fails as KindUnrecognizedFormat
// wrapping the extraction error.
func ParseFields(ex extraction.Result) (Span, error) {
	if !ex.Date.OK() {
		return Span{}, failure.Wrap(failure.KindUnrecognizedFormat, ex.Date.Err, "appointment date unavailable")
	}
	if !ex.Time.OK() {
		return Span{}, failure.Wrap(failure.KindUnrecognizedFormat, ex.Time.Err, "appointment time unavailable")
	}
	return Parse(ex.Date.Text, ex.Time.Text)
}

// ParseStart returns the wall-clock start time. The result carries no
// meaningful location; the caller asserts the configured zone.
func ParseStart(dateText, timeText string) (time.Time, error) {
	joined := StripOrdinals(clean(dateText)) + " " + upperMeridiem(clean(timeText))

	for _, dl := range DateLayouts {
		for _, tl := range TimeLayouts {
			t, err := time.Parse(dl+" "+tl, joined)
			if err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, failure.New(failure.KindUnrecognizedFormat, "time data %q does not match any of the expected formats", joined)
}

func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}

// upperMeridiem rewrites "pm", "p.m." and friends to "PM".
func upperMeridiem(s string) string {
	return meridiem.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ToUpper(m[:1]) + "M"
	})
}
