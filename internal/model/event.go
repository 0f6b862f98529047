package model

type EventType string

const (
	EventVesting          EventType = "vesting"
	EventLoanDue          EventType = "loan-due"
	EventInterestCompound EventType = "interest-compound"
	EventRefinance        EventType = "refinance"
)

// UpcomingEvent is a date-triggered occurrence. It is cached as JSON for the background path.
// SourceID names the record it comes from, so events with equal labels stay distinct.
type UpcomingEvent struct {
	Date     string    `json:"date"`
	Label    string    `json:"label"`
	Type     EventType `json:"type"`
	SourceID string    `json:"sourceId,omitempty"`
}
