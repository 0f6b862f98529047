package trackerService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/KotFed0t/grant_tracker_bot/data/cache"
	"github.com/KotFed0t/grant_tracker_bot/internal/events"
	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/KotFed0t/grant_tracker_bot/internal/notifier"
	"github.com/KotFed0t/grant_tracker_bot/utils"
)

const deliveryLogRetentionDays = 90

func (s *TrackerService) loadedChats() []int64 {
	s.mu.Lock()
	states := make(map[int64]*chatState, len(s.chats))
	for id, st := range s.chats {
		states[id] = st
	}
	s.mu.Unlock()

	ids := make([]int64, 0, len(states))
	for id, st := range states {
		st.mu.Lock()
		if st.loaded {
			ids = append(ids, id)
		}
		st.mu.Unlock()
	}
	slices.Sort(ids)
	return ids
}

// RefreshPrices records the latest quote for every chat that has its document in memory.
func (s *TrackerService) RefreshPrices(ctx context.Context) error {
	ctx = utils.NewCtxWithRqID(ctx)
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TrackerService.RefreshPrices"

	chats := s.loadedChats()
	if len(chats) == 0 {
		return nil
	}

	price, err := s.latestPrice(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, chatID := range chats {
		if _, err = s.SetPrice(ctx, chatID, price); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}

	slog.Info("prices refreshed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("chats", len(chats)), slog.Int("failed", len(errs)))
	return errors.Join(errs...)
}

// NotifyTodaysEvents is the daily background pass: every connected user gets today's
// events from the cached snapshot. Notifications already sent by a session timer are
// dropped by the deduplicating deliverer.
func (s *TrackerService) NotifyTodaysEvents(ctx context.Context) error {
	ctx = utils.NewCtxWithRqID(ctx)
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TrackerService.NotifyTodaysEvents"

	users, err := s.repo.GetUsersWithDrive(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	var errs []error
	total := 0
	for _, u := range users {
		snapshot, err := s.snapshot(ctx, u.ChatID, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", u.ChatID, err))
			continue
		}

		n, err := notifier.DeliverToday(ctx, u.ChatID, snapshot, now, s.deliverer)
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", u.ChatID, err))
		}
	}

	slog.Info("todays events notified", slog.String("rqID", rqID), slog.String("op", op), slog.Int("users", len(users)), slog.Int("delivered", total))
	return errors.Join(errs...)
}

// snapshot returns today's cached events, recomputing them when the cache is empty or stale.
func (s *TrackerService) snapshot(ctx context.Context, chatID int64, now time.Time) ([]model.UpcomingEvent, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	date, cached, err := s.cache.GetEvents(ctx, chatID)
	if err == nil && date == model.FormatDate(now) {
		return cached, nil
	}
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		slog.Warn("can't read events snapshot", slog.String("rqID", rqID), slog.Int64("chatID", chatID), slog.String("err", err.Error()))
	}

	st, err := s.lockedState(ctx, chatID)
	if err != nil {
		return nil, err
	}
	defer st.mu.Unlock()

	if !st.data.NotificationsGranted() {
		return []model.UpcomingEvent{}, nil
	}
	return events.GetUpcomingEvents(st.data, now, s.cfg.Notifications.SnapshotWindowDays), nil
}

// PruneDeliveries drops old entries of the notification delivery log.
func (s *TrackerService) PruneDeliveries(ctx context.Context) error {
	ctx = utils.NewCtxWithRqID(ctx)
	deleted, err := s.repo.DeleteDeliveredBefore(ctx, s.now().AddDate(0, 0, -deliveryLogRetentionDays))
	if err != nil {
		return err
	}
	slog.Info("delivery log pruned", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.Int64("deleted", deleted))
	return nil
}

// Close saves pending changes and cancels every notification timer.
func (s *TrackerService) Close(ctx context.Context) {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.chats))
	for id := range s.chats {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.forget(ctx, id)
	}
	slog.Info("tracker service closed", slog.Int("chats", len(ids)))
}
