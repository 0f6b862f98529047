package notifier

import (
	"fmt"
	"time"

	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/google/uuid"
)

// fireHour is the local hour notifications go out on the event day.
const fireHour = 9

var dedupeNamespace = uuid.MustParse("6f0c7a52-3c1e-4f55-9d0a-2b8e4c1d7a90")

func FormatTitle(ev model.UpcomingEvent) string {
	switch ev.Type {
	case model.EventVesting:
		return "Vesting Event Today"
	case model.EventLoanDue:
		return "Loan Due Today"
	case model.EventInterestCompound:
		return "Interest Compounding Today"
	case model.EventRefinance:
		return "Refinance Event Today"
	default:
		return "Event Today"
	}
}

func FormatBody(ev model.UpcomingEvent) string {
	return ev.Label
}

// DedupeKey identifies one notification across the session and the background path.
// It combines date, type and a name-based uuid of the source record, or of the label
// for events cached without one.
func DedupeKey(ev model.UpcomingEvent) string {
	name := ev.Label
	if ev.SourceID != "" {
		name = ev.SourceID
	}
	return fmt.Sprintf("event-%s-%s-%s", ev.Date, ev.Type, uuid.NewSHA1(dedupeNamespace, []byte(name)))
}

// FireTime is 09:00 in loc on the event date.
func FireTime(ev model.UpcomingEvent, loc *time.Location) (time.Time, error) {
	day, err := model.ParseDate(ev.Date)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), fireHour, 0, 0, 0, loc), nil
}
