package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/google/uuid"
)

type Planned struct {
	Event  model.UpcomingEvent
	FireAt time.Time
}

// PlanSession computes the fire time of every event, local to now's location.
// Nothing is planned without permission, and fire times not after now are dropped:
// missed events are not caught up.
func PlanSession(events []model.UpcomingEvent, now time.Time, granted bool) []Planned {
	if !granted {
		return nil
	}

	res := make([]Planned, 0, len(events))
	for _, ev := range events {
		at, err := FireTime(ev, now.Location())
		if err != nil || !at.After(now) {
			continue
		}
		res = append(res, Planned{Event: ev, FireAt: at})
	}
	return res
}

// Handle cancels one scheduled notification.
type Handle struct {
	jobID uuid.UUID
	sched JobScheduler
}

func (h Handle) Cancel() error {
	return h.sched.RemoveJob(h.jobID)
}

// CancelAll cancels a whole set. Jobs that already ran are gone from the scheduler,
// so errors are only logged.
func CancelAll(handles []Handle) {
	for _, h := range handles {
		if err := h.Cancel(); err != nil {
			slog.Debug("cancel notification job", slog.String("jobID", h.jobID.String()), slog.String("err", err.Error()))
		}
	}
}

type SessionNotifier struct {
	sched     JobScheduler
	deliverer Deliverer
}

func NewSessionNotifier(sched JobScheduler, deliverer Deliverer) *SessionNotifier {
	return &SessionNotifier{sched: sched, deliverer: deliverer}
}

// Schedule registers one timer per planned event. The caller owns the returned handles and
// must cancel them when the event list is recomputed. An event the scheduler refuses is
// skipped; the others stay scheduled and the failures are returned joined.
func (n *SessionNotifier) Schedule(ctx context.Context, chatID int64, events []model.UpcomingEvent, now time.Time, granted bool) ([]Handle, error) {
	planned := PlanSession(events, now, granted)
	handles := make([]Handle, 0, len(planned))

	var errs []error
	for _, p := range planned {
		ev := p.Event
		key := DedupeKey(ev)
		id, err := n.sched.NewOneTimeJob(fmt.Sprintf("notify %d %s", chatID, key), func(ctx context.Context) error {
			return n.deliverer.Deliver(ctx, chatID, FormatTitle(ev), FormatBody(ev), key)
		}, p.FireAt)
		if err != nil {
			errs = append(errs, fmt.Errorf("schedule notification %s: %w", key, err))
			continue
		}
		handles = append(handles, Handle{jobID: id, sched: n.sched})
	}

	return handles, errors.Join(errs...)
}
