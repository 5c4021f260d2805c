package reporting

import (
	"context"
	"errors"
	"time"

	"appointment-caller/internal/audit"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// EventSource reads the audit trail. Reports are derived only from these
// immutable events, never from mutable state.
type EventSource interface {
	List(ctx context.Context, from, to time.Time) ([]audit.Event, error)
}

// Stage names as written to the audit trail by the booking pipeline.
const (
	stagePolling    = "polling"
	stageExtracting = "extracting"
	kindPublish     = "publish_error"
)

type Service struct {
	events EventSource
}

func NewService(events EventSource) *Service { return &Service{events: events} }

func (s *Service) OutcomeSummary(ctx context.Context, req OutcomeSummaryRequest) (OutcomeSummary, error) {
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return OutcomeSummary{}, ErrInvalidRequest
	}
	if s.events == nil {
		return OutcomeSummary{}, errors.New("reporting: event source not configured")
	}

	evs, err := s.events.List(ctx, req.Range.From, req.Range.To)
	if err != nil {
		return OutcomeSummary{}, err
	}

	out := OutcomeSummary{Range: req.Range, FailuresByKind: map[string]int{}}
	placed := map[string]bool{}
	completed := map[string]bool{}
	for _, e := range evs {
		switch e.Type {
		case audit.EventTypeStage:
			switch e.Stage {
			case stagePolling:
				placed[e.RunID] = true
			case stageExtracting:
				placed[e.RunID] = true
				completed[e.RunID] = true
			}
		case audit.EventTypeOutcome:
			out.TotalRuns++
			if e.FailureKind == "" {
				out.Booked++
				continue
			}
			out.Failed++
			out.FailuresByKind[e.FailureKind]++
			if e.FailureKind == kindPublish && e.RecordID != "" {
				out.RecordsWithoutPublish++
			}
		}
	}
	out.CallsPlaced = len(placed)
	out.CallsCompleted = len(completed)
	if out.TotalRuns > 0 {
		out.BookingRate = float64(out.Booked) / float64(out.TotalRuns)
	}
	return out, nil
}
