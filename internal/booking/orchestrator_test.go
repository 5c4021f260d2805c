package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appointment-caller/internal/appointments"
	"appointment-caller/internal/audit"
	"appointment-caller/internal/calendar"
	"appointment-caller/internal/calls"
	"appointment-caller/internal/eventbus"
	"appointment-caller/internal/extraction"
	"appointment-caller/internal/failure"
)

type fakeDispatcher struct {
	err   error
	calls int
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, c calls.Contact) (calls.Session, error) {
	f.calls++
	if f.err != nil {
		return calls.Session{}, f.err
	}
	return calls.Session{CallID: "call-1", Status: calls.StatusQueued}, nil
}

type fakePoller struct {
	transcript []calls.Utterance
	err        error
	calls      int
}

func (f *fakePoller) Wait(ctx context.Context, callID string) (calls.Session, error) {
	f.calls++
	if f.err != nil {
		return calls.Session{}, f.err
	}
	return calls.Session{CallID: callID, Status: calls.StatusCompleted, Transcript: f.transcript}, nil
}

type fakeExtractor struct {
	res       extraction.Result
	got       string
	panicWith any
}

func (f *fakeExtractor) Extract(ctx context.Context, transcript string) extraction.Result {
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	f.got = transcript
	return f.res
}

type fakeWebhook struct {
	err      error
	payloads []calendar.Payload
}

func (f *fakeWebhook) Publish(ctx context.Context, p calendar.Payload) error {
	f.payloads = append(f.payloads, p)
	return f.err
}

type failingRepo struct{}

func (failingRepo) Insert(ctx context.Context, rec appointments.Record) error {
	return errors.New("dial tcp 10.0.0.5:5432: connection refused")
}
func (failingRepo) Get(ctx context.Context, id string) (appointments.Record, error) {
	return appointments.Record{}, appointments.ErrNotFound
}

type fakeLock struct {
	busy     bool
	err      error
	released int
}

func (f *fakeLock) Acquire(ctx context.Context, phone string) (func(), bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if f.busy {
		return nil, false, nil
	}
	return func() { f.released++ }, true, nil
}

type harness struct {
	dispatcher *fakeDispatcher
	poller     *fakePoller
	extractor  *fakeExtractor
	webhook    *fakeWebhook
	records    *appointments.MemoryRepo
	auditRepo  *audit.MemoryRepo
	bus        *eventbus.MemoryPublisher
	deps       Deps
}

func newHarness(date, tm string) *harness {
	h := &harness{
		dispatcher: &fakeDispatcher{},
		poller: &fakePoller{transcript: []calls.Utterance{
			{Speaker: "assistant", Text: "When would you like to come in?"},
			{Speaker: "user", Text: "The appointment is on August 15th, 2024 at 2:00 PM."},
		}},
		extractor: &fakeExtractor{res: extraction.Result{Date: extraction.Field{Text: date}, Time: extraction.Field{Text: tm}}},
		webhook:   &fakeWebhook{},
		records:   appointments.NewMemoryRepo(),
		auditRepo: audit.NewMemoryRepo(),
		bus:       eventbus.NewMemoryPublisher(),
	}
	h.deps = Deps{
		Dispatcher: h.dispatcher,
		Poller:     h.poller,
		Extractor:  h.extractor,
		Records:    appointments.NewService(h.records, nil),
		Webhook:    h.webhook,
		Template:   calendar.DefaultTemplate(),
		Audit:      audit.NewService(h.auditRepo),
		Notifier:   eventbus.NewNotifier(h.bus, nil),
	}
	return h
}

func (h *harness) run(t *testing.T) Result {
	t.Helper()
	return NewOrchestrator(h.deps).Run(context.Background(), Request{Contact: contact(), ActorUserID: "op-1"})
}

func contact() calls.Contact {
	return calls.Contact{
		CustomerName: "Asha",
		PhoneNumber:  "+919800000000",
		Voice:        calls.VoiceAmericanFemale,
		AgentName:    "Ravi",
		Email:        "asha@example.com",
	}
}

func stages(evs []audit.Event) []string {
	var out []string
	for _, e := range evs {
		out = append(out, e.Stage)
	}
	return out
}

func TestRun_Success(t *testing.T) {
	h := newHarness("August 15th, 2024", "2:00 PM")

	res := h.run(t)

	require.True(t, res.OK(), "unexpected failure: %+v", res.Failure)
	assert.Nil(t, res.Failure)
	assert.Equal(t, "call-1", res.CallID)
	assert.Equal(t, "2024-08-15T14:00:00", res.Record.Start)
	assert.Equal(t, "2024-08-15T15:00:00", res.Record.End)
	assert.Equal(t, "asha@example.com", res.Record.Email)
	assert.Equal(t, "When would you like to come in?\nThe appointment is on August 15th, 2024 at 2:00 PM.", h.extractor.got)

	require.Len(t, h.records.Records(), 1)
	require.Len(t, h.webhook.payloads, 1)
	p := h.webhook.payloads[0]
	assert.Equal(t, res.Record.ID, p.RecordID)
	assert.Equal(t, "2024-08-15T14:00:00", p.StartDateTime)
	assert.Equal(t, "asha@example.com", p.Guests)

	assert.Equal(t, []string{"dispatching", "polling", "extracting", "normalizing", "persisting", "publishing", "done"}, stages(h.auditRepo.Events()))

	msgs := h.bus.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, eventbus.RoutingKeyBooked, msgs[0].RoutingKey)
}

func TestRun_ScenarioB_RollsOverMidnight(t *testing.T) {
	h := newHarness("31 Dec, 2024", "23:00")

	res := h.run(t)

	require.True(t, res.OK())
	assert.Equal(t, "2024-12-31T23:00:00", res.Record.Start)
	assert.Equal(t, "2025-01-01T00:00:00", res.Record.End)
}

func TestRun_UnparseableDateStopsBeforePersistence(t *testing.T) {
	h := newHarness("sometime next week", "2 PM")

	res := h.run(t)

	require.NotNil(t, res.Failure)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Nil(t, res.Record)
	assert.Equal(t, failure.KindUnrecognizedFormat, res.Failure.Kind)
	assert.Equal(t, StageNormalizing, res.Failure.Stage)
	assert.Empty(t, h.records.Records())
	assert.Empty(t, h.webhook.payloads)
}

func TestRun_EmptyDateIsUnrecognized(t *testing.T) {
	h := newHarness("", "2 PM")

	res := h.run(t)

	require.NotNil(t, res.Failure)
	assert.Equal(t, failure.KindUnrecognizedFormat, res.Failure.Kind)
	assert.Empty(t, h.webhook.payloads)
}

func TestRun_ExtractionFailureIsNotStored(t *testing.T) {
	h := newHarness("", "")
	h.extractor.res = extraction.Result{
		Date: extraction.Field{Text: "15 August 2024"},
		Time: extraction.Field{Err: failure.New(failure.KindExtraction, "extract time: rate limited")},
	}

	res := h.run(t)

	require.NotNil(t, res.Failure)
	assert.Equal(t, failure.KindUnrecognizedFormat, res.Failure.Kind)
	assert.Contains(t, res.Failure.Message, "rate limited")
	assert.Empty(t, h.records.Records())
}

func TestRun_DispatchFailureNeverPolls(t *testing.T) {
	h := newHarness("15 August 2024", "2 PM")
	h.dispatcher.err = failure.New(failure.KindDispatch, "provider rejected call (status 400)")

	res := h.run(t)

	require.NotNil(t, res.Failure)
	assert.Equal(t, failure.KindDispatch, res.Failure.Kind)
	assert.Equal(t, StageDispatching, res.Failure.Stage)
	assert.Equal(t, 0, h.poller.calls)
	assert.Empty(t, h.webhook.payloads)

	msgs := h.bus.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, eventbus.RoutingKeyFailed, msgs[0].RoutingKey)
}

func TestRun_InvalidContactNeverDispatches(t *testing.T) {
	h := newHarness("15 August 2024", "2 PM")

	res := NewOrchestrator(h.deps).Run(context.Background(), Request{Contact: calls.Contact{PhoneNumber: "+1"}})

	require.NotNil(t, res.Failure)
	assert.Equal(t, failure.KindDispatch, res.Failure.Kind)
	assert.Equal(t, 0, h.dispatcher.calls)
}

func TestRun_PersistenceErrorIsNotSilentSuccess(t *testing.T) {
	h := newHarness("15 August 2024", "2 PM")
	h.deps.Records = appointments.NewService(failingRepo{}, nil)

	res := h.run(t)

	require.NotNil(t, res.Failure)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, failure.KindPersistence, res.Failure.Kind)
	assert.Nil(t, res.Record)
	assert.Empty(t, h.webhook.payloads)
}

func TestRun_PublishFailureKeepsRecord(t *testing.T) {
	h := newHarness("15 August 2024", "2 PM")
	h.webhook.err = failure.New(failure.KindPublish, "webhook returned status 500")

	res := h.run(t)

	require.NotNil(t, res.Failure)
	assert.Equal(t, failure.KindPublish, res.Failure.Kind)
	require.Len(t, h.records.Records(), 1)
	assert.Equal(t, h.records.Records()[0].ID, res.Failure.RecordID)
	assert.Nil(t, res.Record)
}

func TestRun_PollFailuresPropagateKind(t *testing.T) {
	for _, kind := range []failure.Kind{failure.KindPollTimeout, failure.KindCallFailed, failure.KindTranscriptUnavailable} {
		h := newHarness("15 August 2024", "2 PM")
		h.poller.err = failure.New(kind, "x")

		res := h.run(t)

		require.NotNil(t, res.Failure)
		assert.Equal(t, kind, res.Failure.Kind)
		assert.Equal(t, StagePolling, res.Failure.Stage)
		assert.Equal(t, "call-1", res.CallID)
	}
}

func TestRun_BusyNumberIsDispatchError(t *testing.T) {
	h := newHarness("15 August 2024", "2 PM")
	lock := &fakeLock{busy: true}
	h.deps.Lock = lock

	res := h.run(t)

	require.NotNil(t, res.Failure)
	assert.Equal(t, failure.KindDispatch, res.Failure.Kind)
	assert.Equal(t, 0, h.dispatcher.calls)
}

func TestRun_LockReleasedAfterRun(t *testing.T) {
	h := newHarness("15 August 2024", "2 PM")
	lock := &fakeLock{}
	h.deps.Lock = lock

	res := h.run(t)

	require.True(t, res.OK())
	assert.Equal(t, 1, lock.released)
}

func TestRun_LockErrorFailsClosed(t *testing.T) {
	h := newHarness("15 August 2024", "2 PM")
	h.deps.Lock = &fakeLock{err: errors.New("redis: connection refused")}

	res := h.run(t)

	require.NotNil(t, res.Failure)
	assert.Equal(t, failure.KindDispatch, res.Failure.Kind)
	assert.Equal(t, 0, h.dispatcher.calls)
}

func TestRun_PanicBecomesFailure(t *testing.T) {
	h := newHarness("15 August 2024", "2 PM")
	h.extractor.panicWith = "nil map write"
	lock := &fakeLock{}
	h.deps.Lock = lock

	res := h.run(t)

	require.NotNil(t, res.Failure)
	assert.Equal(t, failure.KindInternal, res.Failure.Kind)
	assert.Equal(t, StageExtracting, res.Failure.Stage)
	assert.Equal(t, 1, lock.released)

	evs := h.auditRepo.Events()
	require.NotEmpty(t, evs)
	last := evs[len(evs)-1]
	assert.Equal(t, audit.EventTypeOutcome, last.Type)
	assert.Equal(t, string(failure.KindInternal), last.FailureKind)
}

func TestRun_WithoutOptionalDeps(t *testing.T) {
	h := newHarness("15 August 2024", "2 PM")
	h.deps.Audit = nil
	h.deps.Notifier = nil

	res := h.run(t)

	require.True(t, res.OK())
}
