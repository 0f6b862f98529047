package trackerService

import (
	"context"
	"errors"
	"log/slog"

	"github.com/KotFed0t/grant_tracker_bot/data/repository"
	"github.com/KotFed0t/grant_tracker_bot/utils"
)

func (s *TrackerService) RegUser(ctx context.Context, chatID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TrackerService.RegUser"

	slog.Debug("RegUser start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("RegUser finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	_, err := s.repo.InsertUser(ctx, chatID)
	if err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
		slog.Error("got error from repo.InsertUser", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

// Connect stores the user's Drive refresh token and loads the document with it.
func (s *TrackerService) Connect(ctx context.Context, chatID int64, refreshToken string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TrackerService.Connect"

	slog.Debug("Connect start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("Connect finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	err := s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := s.repo.GetUser(ctx, chatID)
		if errors.Is(err, repository.ErrNotFound) {
			_, err = s.repo.InsertUser(ctx, chatID)
		}
		if err != nil {
			return err
		}
		return s.repo.SetDriveToken(ctx, chatID, refreshToken)
	})
	if err != nil {
		slog.Error("can't store drive token", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	s.forget(ctx, chatID)

	st, err := s.lockedState(ctx, chatID)
	if err != nil {
		return err
	}
	st.mu.Unlock()

	return nil
}

// Disconnect removes the Drive token and the cached events. Pending changes are saved first.
func (s *TrackerService) Disconnect(ctx context.Context, chatID int64) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TrackerService.Disconnect"

	s.forget(ctx, chatID)

	if err := s.repo.SetDriveToken(ctx, chatID, ""); err != nil {
		slog.Error("got error from repo.SetDriveToken", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}
	if err := s.cache.DeleteEvents(ctx, chatID); err != nil {
		slog.Warn("can't drop events snapshot", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}
	return nil
}
