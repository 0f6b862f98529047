package notifier

import (
	"context"
	"errors"
	"time"

	"github.com/KotFed0t/grant_tracker_bot/internal/model"
)

// TodaysEvents keeps the snapshot events dated on today's calendar date.
func TodaysEvents(snapshot []model.UpcomingEvent, today time.Time) []model.UpcomingEvent {
	day := model.FormatDate(today)
	res := make([]model.UpcomingEvent, 0)
	for _, ev := range snapshot {
		on, err := model.ParseDate(ev.Date)
		if err == nil && model.FormatDate(on) == day {
			res = append(res, ev)
		}
	}
	return res
}

// DeliverToday is the background wake path: it notifies today's events from a cached snapshot.
// The deliverer is expected to deduplicate against the session path.
func DeliverToday(ctx context.Context, chatID int64, snapshot []model.UpcomingEvent, today time.Time, d Deliverer) (int, error) {
	var errs []error
	delivered := 0
	for _, ev := range TodaysEvents(snapshot, today) {
		if err := d.Deliver(ctx, chatID, FormatTitle(ev), FormatBody(ev), DedupeKey(ev)); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}
