// Package events finds the date-based occurrences (vesting, loan due, interest
// compounding, refinance) that fall inside a lookahead window.
package events

import (
	"fmt"
	"slices"
	"time"

	"github.com/KotFed0t/grant_tracker_bot/internal/model"
)

// Interest is capitalized once a year on July 15.
const (
	compoundMonth = time.July
	compoundDay   = 15
)

const compoundLabel = "Annual interest compounding date"

// GetUpcomingEvents returns the events dated within [today, today+windowDays], both ends
// included, sorted by date. Events on the same day keep source order: vesting, loan due,
// interest compounding, refinance. Nothing is deduplicated.
func GetUpcomingEvents(data model.AppData, today time.Time, windowDays int) []model.UpcomingEvent {
	w := newWindow(today, windowDays)
	res := make([]model.UpcomingEvent, 0)

	for _, g := range data.Grants {
		start, err := model.ParseDate(g.VestStart)
		if err != nil {
			continue
		}
		for i := 0; i < g.VestPeriods; i++ {
			on := start.AddDate(i, 0, 0)
			if on.After(w.end) {
				break
			}
			if w.contains(on) {
				res = append(res, model.UpcomingEvent{
					Date:  model.FormatDate(on),
					Label:    fmt.Sprintf("%d %s — vesting period %d", g.Year, g.Type, i+1),
					Type:     model.EventVesting,
					SourceID: fmt.Sprintf("%s-vest-%d", g.ID, i+1),
				})
			}
		}
	}

	for _, l := range data.BaseLoans {
		due, err := model.ParseDate(l.Due)
		if err != nil || !w.contains(due) {
			continue
		}
		res = append(res, model.UpcomingEvent{
			Date:  model.FormatDate(due),
			Label:    fmt.Sprintf("%d %s %s loan due", l.GrantYear, l.GrantType, l.LoanType),
			Type:     model.EventLoanDue,
			SourceID: l.ID,
		})
	}

	for y := w.start.Year(); y <= w.end.Year(); y++ {
		on := time.Date(y, compoundMonth, compoundDay, 0, 0, 0, 0, time.UTC)
		if w.contains(on) {
			res = append(res, model.UpcomingEvent{
				Date:  model.FormatDate(on),
				Label:    compoundLabel,
				Type:     model.EventInterestCompound,
				SourceID: fmt.Sprintf("compound-%d", y),
			})
		}
	}

	for _, re := range data.RefinanceEvents {
		on, err := model.ParseDate(re.Date)
		if err != nil || !w.contains(on) {
			continue
		}
		res = append(res, model.UpcomingEvent{
			Date:  model.FormatDate(on),
			Label:    refinanceLabel(len(re.ReplacesLoanIDs)),
			Type:     model.EventRefinance,
			SourceID: re.ID,
		})
	}

	slices.SortStableFunc(res, func(a, b model.UpcomingEvent) int { return model.CompareDates(a.Date, b.Date) })
	return res
}

func refinanceLabel(n int) string {
	if n == 1 {
		return "Refinance event (1 loan)"
	}
	return fmt.Sprintf("Refinance event (%d loans)", n)
}

// window is an inclusive range of calendar days.
type window struct {
	start time.Time
	end   time.Time
}

func newWindow(today time.Time, days int) window {
	start := model.DayOf(today)
	return window{start: start, end: start.AddDate(0, 0, days)}
}

func (w window) contains(day time.Time) bool {
	return !day.Before(w.start) && !day.After(w.end)
}
