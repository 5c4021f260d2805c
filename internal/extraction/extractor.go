package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"appointment-caller/internal/failure"
)

const (
	datePrompt = "Extract the appointment only date from the following transcript and don't give any other text: %s"
	timePrompt = "Extract the appointment only time not date from the following transcript and don't give any other text: %s"
)

// Field is one extracted value. Err is set instead of Text when the model
// could not be asked; it always carries failure.KindExtraction.
type Field struct {
	Text string
	Err  error
}

func (f Field) OK() bool { return f.Err == nil }

type Result struct {
	Date Field
	Time Field
}

func (r Result) OK() bool { return r.Date.OK() && r.Time.OK() }

// Extractor asks the language model for the appointment date and time.
type Extractor struct {
	llm Completer
	log *slog.Logger
}

func NewExtractor(llm Completer, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{llm: llm, log: log}
}

// Extract issues two independent requests. It never fails as a whole: a
// failed request marks only its own field.
func (e *Extractor) Extract(ctx context.Context, transcript string) Result {
	return Result{
		Date: e.ask(ctx, "date", fmt.Sprintf(datePrompt, transcript)),
		Time: e.ask(ctx, "time", fmt.Sprintf(timePrompt, transcript)),
	}
}

func (e *Extractor) ask(ctx context.Context, field, prompt string) Field {
	if e.llm == nil {
		return Field{Err: failure.New(failure.KindExtraction, "%s: language model not configured", field)}
	}
	out, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		e.log.WarnContext(ctx, "extraction request failed", "field", field, "err", err)
		return Field{Err: failure.Wrap(failure.KindExtraction, err, "extract %s", field)}
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return Field{Err: failure.New(failure.KindExtraction, "extract %s: empty answer", field)}
	}
	e.log.DebugContext(ctx, "extracted", "field", field, "text", out)
	return Field{Text: out}
}
