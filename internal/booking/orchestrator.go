package booking

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"appointment-caller/internal/appointments"
	"appointment-caller/internal/calendar"
	"appointment-caller/internal/calls"
	"appointment-caller/internal/eventbus"
	"appointment-caller/internal/extraction"
	"appointment-caller/internal/failure"
	"appointment-caller/internal/normalize"
	"appointment-caller/pkg/logger"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, c calls.Contact) (calls.Session, error)
}

type Poller interface {
	Wait(ctx context.Context, callID string) (calls.Session, error)
}

type Extractor interface {
	Extract(ctx context.Context, transcript string) extraction.Result
}

type RecordStore interface {
	Create(ctx context.Context, in appointments.NewRecord) (appointments.Record, error)
}

type WebhookPublisher interface {
	Publish(ctx context.Context, p calendar.Payload) error
}

type Auditor interface {
	LogStage(ctx context.Context, runID, actorUserID, stage, callID string) error
	LogOutcome(ctx context.Context, runID, actorUserID, stage, callID, recordID, failureKind, message string) error
}

type Notifier interface {
	Notify(ctx context.Context, ev eventbus.ResultEvent) error
}

// Deps wires an Orchestrator. Lock, Audit and Notifier are optional.
type Deps struct {
	Dispatcher Dispatcher
	Poller     Poller
	Extractor  Extractor
	Records    RecordStore
	Webhook    WebhookPublisher
	Template   calendar.Template

	Lock     Lock
	Audit    Auditor
	Notifier Notifier
	Log      *slog.Logger
}

// Orchestrator runs the booking pipeline:
// dispatch, poll, extract, normalize, persist, publish.
type Orchestrator struct {
	d     Deps
	clock func() time.Time
	newID func() string
}

func NewOrchestrator(d Deps) *Orchestrator {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &Orchestrator{d: d, clock: time.Now, newID: uuid.NewString}
}

type run struct {
	id     string
	actor  string
	stage  Stage
	callID string
	log    *slog.Logger
}

// Run executes one booking end to end. It always returns a Result; failures
// are reported in Result.Failure, never as a panic or error.
func (o *Orchestrator) Run(ctx context.Context, req Request) (res Result) {
	r := &run{id: o.newID(), actor: req.ActorUserID}
	r.log = logger.FromOr(ctx, o.d.Log).With("run_id", r.id)
	ctx = logger.With(ctx, r.log)

	defer func() {
		if p := recover(); p != nil {
			r.log.ErrorContext(ctx, "booking run panicked", "stage", string(r.stage), "panic", fmt.Sprint(p), "stack", string(debug.Stack()))
			res = o.failed(r, failure.New(failure.KindInternal, "unexpected error in %s stage: %v", r.stage, p), "")
		}
		o.finish(context.WithoutCancel(ctx), r, res)
	}()

	return o.run(ctx, r, req)
}

func (o *Orchestrator) run(ctx context.Context, r *run, req Request) Result {
	o.enter(ctx, r, StageDispatching)
	if err := req.Contact.Validate(); err != nil {
		return o.failed(r, err, "")
	}
	if o.d.Lock != nil {
		release, ok, err := o.d.Lock.Acquire(ctx, req.Contact.PhoneNumber)
		if err != nil {
			return o.failed(r, failure.Wrap(failure.KindDispatch, err, "acquire call lock"), "")
		}
		if !ok {
			return o.failed(r, failure.New(failure.KindDispatch, "a call to this number is already in progress"), "")
		}
		defer release()
	}
	session, err := o.d.Dispatcher.Dispatch(ctx, req.Contact)
	if err != nil {
		return o.failed(r, err, "")
	}
	r.callID = session.CallID

	o.enter(ctx, r, StagePolling)
	session, err = o.d.Poller.Wait(ctx, session.CallID)
	if err != nil {
		return o.failed(r, err, "")
	}

	o.enter(ctx, r, StageExtracting)
	extracted := o.d.Extractor.Extract(ctx, session.TranscriptText())

	o.enter(ctx, r, StageNormalizing)
	span, err := normalize.ParseFields(extracted)
	if err != nil {
		return o.failed(r, err, "")
	}

	o.enter(ctx, r, StagePersisting)
	rec, err := o.d.Records.Create(ctx, appointments.NewRecord{
		DateText: extracted.Date.Text,
		TimeText: extracted.Time.Text,
		Email:    req.Contact.Email,
		CallID:   r.callID,
		Span:     span,
	})
	if err != nil {
		return o.failed(r, err, "")
	}

	o.enter(ctx, r, StagePublishing)
	payload, err := calendar.Build(rec, o.d.Template)
	if err != nil {
		return o.failed(r, failure.Wrap(failure.KindPublish, err, "build calendar payload"), rec.ID)
	}
	if err := o.d.Webhook.Publish(ctx, payload); err != nil {
		return o.failed(r, err, rec.ID)
	}

	r.stage = StageDone
	return Result{RunID: r.id, Status: StatusDone, CallID: r.callID, Record: &rec}
}

func (o *Orchestrator) enter(ctx context.Context, r *run, s Stage) {
	r.stage = s
	r.log.DebugContext(ctx, "booking stage", "stage", string(s), "call_id", r.callID)
	if o.d.Audit == nil {
		return
	}
	if err := o.d.Audit.LogStage(ctx, r.id, r.actor, string(s), r.callID); err != nil {
		r.log.WarnContext(ctx, "audit stage write failed", "stage", string(s), "err", err)
	}
}

func (o *Orchestrator) failed(r *run, err error, recordID string) Result {
	return Result{
		RunID:  r.id,
		Status: StatusFailed,
		CallID: r.callID,
		Failure: &Failure{
			Kind:     failure.KindOf(err),
			Stage:    r.stage,
			Message:  err.Error(),
			RecordID: recordID,
		},
	}
}

func (o *Orchestrator) finish(ctx context.Context, r *run, res Result) {
	ev := eventbus.ResultEvent{
		RunID:      r.id,
		Status:     string(res.Status),
		CallID:     res.CallID,
		OccurredAt: o.clock().UTC(),
	}
	stage, kind, msg, recordID := string(StageDone), "", "", ""
	if res.Record != nil {
		recordID = res.Record.ID
		ev.Start = res.Record.Start
	}
	if res.Failure != nil {
		stage, kind, msg, recordID = string(StageFailed), string(res.Failure.Kind), res.Failure.Message, res.Failure.RecordID
		r.log.WarnContext(ctx, "booking failed",
			"stage", string(res.Failure.Stage),
			"kind", kind,
			"call_id", res.CallID,
			"record_id", recordID,
			"err", msg,
		)
	} else {
		r.log.InfoContext(ctx, "booking done", "call_id", res.CallID, "record_id", recordID)
	}
	ev.RecordID, ev.FailureKind, ev.Message = recordID, kind, msg

	if o.d.Audit != nil {
		if err := o.d.Audit.LogOutcome(ctx, r.id, r.actor, stage, res.CallID, recordID, kind, msg); err != nil {
			r.log.WarnContext(ctx, "audit outcome write failed", "err", err)
		}
	}
	if o.d.Notifier != nil {
		if err := o.d.Notifier.Notify(ctx, ev); err != nil {
			r.log.WarnContext(ctx, "result notification failed", "err", err)
		}
	}
}
