package reporting

import "time"

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// OutcomeSummaryRequest asks for booking-run statistics over [From, To).
type OutcomeSummaryRequest struct {
	Range TimeRange `json:"range"`
}

type OutcomeSummary struct {
	Range TimeRange `json:"range"`

	TotalRuns int `json:"total_runs"`
	Booked    int `json:"booked"`
	Failed    int `json:"failed"`

	// FailuresByKind counts failed runs per failure kind.
	FailuresByKind map[string]int `json:"failures_by_kind"`

	// CallsPlaced counts runs that got past dispatch; CallsCompleted those that got a transcript.
	CallsPlaced    int `json:"calls_placed"`
	CallsCompleted int `json:"calls_completed"`

	// RecordsWithoutPublish counts stored records whose webhook delivery failed.
	RecordsWithoutPublish int `json:"records_without_publish"`

	BookingRate float64 `json:"booking_rate"`
}
