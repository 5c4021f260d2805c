package calls

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"appointment-caller/internal/failure"
	"appointment-caller/internal/telephony"
)

// Contact is what an operator supplies to book one appointment call.
type Contact struct {
	CustomerName string       `json:"customer_name"`
	PhoneNumber  string       `json:"phone_number"`
	Voice        VoiceProfile `json:"voice"`
	AgentName    string       `json:"agent_name"`
	Email        string       `json:"email"`
}

// Validate checks that every field is present. The phone number is passed to
// the provider as-is.
func (c Contact) Validate() error {
	var missing []string
	if strings.TrimSpace(c.CustomerName) == "" {
		missing = append(missing, "customer_name")
	}
	if strings.TrimSpace(c.PhoneNumber) == "" {
		missing = append(missing, "phone_number")
	}
	if c.Voice == "" {
		missing = append(missing, "voice")
	}
	if strings.TrimSpace(c.AgentName) == "" {
		missing = append(missing, "agent_name")
	}
	if strings.TrimSpace(c.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return failure.New(failure.KindDispatch, "missing required fields: %s", strings.Join(missing, ", "))
	}
	if !c.Voice.Valid() {
		return failure.New(failure.KindDispatch, "unknown voice profile %q", c.Voice)
	}
	return nil
}

// Dispatcher places outbound calls. A dispatch is attempted once; it is never
// retried, so a number is not dialed twice for one request.
type Dispatcher struct {
	provider     telephony.Provider
	organization string
	log          *slog.Logger
	clock        func() time.Time
}

func NewDispatcher(provider telephony.Provider, organization string, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{provider: provider, organization: organization, log: log, clock: time.Now}
}

// NewRequest builds the provider request for a validated contact.
func (d *Dispatcher) NewRequest(c Contact) Request {
	return Request{
		PhoneNumber:   c.PhoneNumber,
		VoiceID:       c.Voice.ProviderVoiceID(),
		Script:        BuildScript(d.organization, c.AgentName, c.CustomerName, c.Email),
		ReduceLatency: true,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, c Contact) (Session, error) {
	if d.provider == nil {
		return Session{}, failure.New(failure.KindDispatch, "voice provider not configured")
	}
	if err := c.Validate(); err != nil {
		return Session{}, err
	}

	req := d.NewRequest(c)
	res, err := d.provider.PlaceCall(ctx, telephony.PlaceCallRequest{
		PhoneNumber:   req.PhoneNumber,
		Task:          req.Script,
		VoiceID:       req.VoiceID,
		ReduceLatency: req.ReduceLatency,
	})
	if err != nil {
		return Session{}, failure.Wrap(failure.KindDispatch, err, "place call via %s", d.provider.Name())
	}
	if !res.OK() {
		d.log.WarnContext(ctx, "call rejected by provider",
			"provider", d.provider.Name(),
			"http_status", res.HTTPStatus,
			"accepted", res.Accepted,
			"message", res.Message,
		)
		if res.Message != "" {
			return Session{}, failure.New(failure.KindDispatch, "provider rejected call (status %d): %s", res.HTTPStatus, res.Message)
		}
		return Session{}, failure.New(failure.KindDispatch, "provider rejected call (status %d)", res.HTTPStatus)
	}

	d.log.InfoContext(ctx, "call dispatched", "call_id", res.CallID, "voice", string(c.Voice))
	return Session{
		CallID:       res.CallID,
		Status:       StatusQueued,
		DispatchedAt: d.clock().UTC(),
	}, nil
}
