package calls

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"appointment-caller/internal/config"
	"appointment-caller/internal/failure"
	"appointment-caller/internal/telephony"
)

// PollPolicy bounds how long and how often call status is read.
type PollPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxAttempts     int

	// Timeout is a wall-clock bound applied on top of the caller's context.
	Timeout time.Duration
}

func PolicyFromConfig(cfg config.PollConfig) PollPolicy {
	return PollPolicy{
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
		Multiplier:      2,
		MaxAttempts:     cfg.MaxAttempts,
		Timeout:         cfg.Timeout,
	}
}

func (p PollPolicy) withDefaults() PollPolicy {
	if p.InitialInterval <= 0 {
		p.InitialInterval = 2 * time.Second
	}
	if p.MaxInterval < p.InitialInterval {
		p.MaxInterval = p.InitialInterval
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 120
	}
	return p
}

func (p PollPolicy) next(d time.Duration) time.Duration {
	n := time.Duration(float64(d) * p.Multiplier)
	if n > p.MaxInterval {
		return p.MaxInterval
	}
	return n
}

// Poller waits for a dispatched call to finish and reads its transcript.
type Poller struct {
	provider telephony.Provider
	policy   PollPolicy
	log      *slog.Logger
}

func NewPoller(provider telephony.Provider, policy PollPolicy, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	return &Poller{provider: provider, policy: policy.withDefaults(), log: log}
}

// Wait polls until the call completes, fails, or a bound is hit.
//
// Errors carry one of: PollTimeout, CallFailed, TranscriptUnavailable.
func (p *Poller) Wait(ctx context.Context, callID string) (Session, error) {
	if p.provider == nil {
		return Session{}, failure.New(failure.KindInternal, "voice provider not configured")
	}
	if p.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.policy.Timeout)
		defer cancel()
	}

	log := p.log.With("call_id", callID)
	interval := p.policy.InitialInterval
	var lastErr error

	for attempt := 1; attempt <= p.policy.MaxAttempts; attempt++ {
		d, err := p.provider.CallDetails(ctx, callID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return Session{}, p.timedOut(ctx, callID, attempt)
			}
			lastErr = err
			log.WarnContext(ctx, "call status read failed", "attempt", attempt, "err", err)

		case telephony.IsTerminalFailure(d.Status):
			log.InfoContext(ctx, "call ended without conversation", "status", d.Status, "attempt", attempt)
			return Session{CallID: callID, Status: StatusFailed},
				failure.New(failure.KindCallFailed, "call %s ended with status %q", callID, d.Status)

		case d.Completed || d.Status == telephony.StatusCompleted:
			return p.completed(ctx, callID, d)

		default:
			log.DebugContext(ctx, "call not finished", "status", d.Status, "attempt", attempt, "next_in", interval.String())
		}

		if attempt == p.policy.MaxAttempts {
			break
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return Session{}, p.timedOut(ctx, callID, attempt)
		case <-t.C:
		}
		interval = p.policy.next(interval)
	}

	if lastErr != nil {
		return Session{}, failure.Wrap(failure.KindPollTimeout, lastErr, "call %s not finished after %d attempts", callID, p.policy.MaxAttempts)
	}
	return Session{}, failure.New(failure.KindPollTimeout, "call %s not finished after %d attempts", callID, p.policy.MaxAttempts)
}

func (p *Poller) completed(ctx context.Context, callID string, d telephony.CallDetails) (Session, error) {
	if len(d.Transcripts) == 0 {
		return Session{CallID: callID, Status: StatusCompleted},
			failure.New(failure.KindTranscriptUnavailable, "call %s completed without transcript data", callID)
	}

	utterances := make([]Utterance, 0, len(d.Transcripts))
	for _, t := range d.Transcripts {
		utterances = append(utterances, Utterance{Speaker: t.User, Text: t.Text})
	}
	p.log.InfoContext(ctx, "call completed", "call_id", callID, "utterances", len(utterances))
	return Session{CallID: callID, Status: StatusCompleted, Transcript: utterances}, nil
}

func (p *Poller) timedOut(ctx context.Context, callID string, attempts int) error {
	cause := ctx.Err()
	if errors.Is(cause, context.DeadlineExceeded) {
		return failure.Wrap(failure.KindPollTimeout, cause, "call %s not finished after %d attempts", callID, attempts)
	}
	return failure.Wrap(failure.KindPollTimeout, cause, "polling call %s stopped", callID)
}
