package notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Deliver(ctx context.Context, chatID int64, title, body, dedupeKey string) error {
	args := m.Called(ctx, chatID, title, body, dedupeKey)
	return args.Error(0)
}

type MockDeliveryLog struct {
	mock.Mock
}

func (m *MockDeliveryLog) MarkDelivered(ctx context.Context, chatID int64, dedupeKey string) error {
	args := m.Called(ctx, chatID, dedupeKey)
	return args.Error(0)
}

// fakeScheduler records one-time jobs so tests can fire them by hand.
type fakeScheduler struct {
	jobs    map[uuid.UUID]func(ctx context.Context) error
	at      map[uuid.UUID]time.Time
	removed []uuid.UUID
	failOn  int
	calls   int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		jobs: make(map[uuid.UUID]func(ctx context.Context) error),
		at:   make(map[uuid.UUID]time.Time),
	}
}

func (s *fakeScheduler) NewOneTimeJob(_ string, fn func(ctx context.Context) error, at time.Time) (uuid.UUID, error) {
	s.calls++
	if s.failOn > 0 && s.calls == s.failOn {
		return uuid.Nil, errSchedule
	}
	id := uuid.New()
	s.jobs[id] = fn
	s.at[id] = at
	return id, nil
}

func (s *fakeScheduler) RemoveJob(id uuid.UUID) error {
	s.removed = append(s.removed, id)
	delete(s.jobs, id)
	return nil
}
