// Package notifier turns upcoming events into notifications: fixed title/body formatting,
// in-session one-time timers and the daily background pass over a cached snapshot.
// Delivery itself is left to a Deliverer.
package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Deliverer is the external notification sink.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, title, body, dedupeKey string) error
}

// JobScheduler runs a function once at a given time.
type JobScheduler interface {
	NewOneTimeJob(name string, fn func(ctx context.Context) error, at time.Time) (uuid.UUID, error)
	RemoveJob(id uuid.UUID) error
}
