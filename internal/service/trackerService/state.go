package trackerService

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/grant_tracker_bot/data/repository"
	"github.com/KotFed0t/grant_tracker_bot/internal/events"
	"github.com/KotFed0t/grant_tracker_bot/internal/externalApi"
	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/KotFed0t/grant_tracker_bot/internal/notifier"
	"github.com/KotFed0t/grant_tracker_bot/internal/service"
	"github.com/KotFed0t/grant_tracker_bot/internal/validation"
	"github.com/KotFed0t/grant_tracker_bot/utils"
)

// lockedState returns the chat state with its mutex held, loading it from Drive on first use.
// The caller must unlock st.mu.
func (s *TrackerService) lockedState(ctx context.Context, chatID int64) (*chatState, error) {
	st := s.state(chatID)

	st.mu.Lock()
	if !st.loaded {
		if err := s.load(ctx, chatID, st); err != nil {
			st.mu.Unlock()
			return nil, err
		}
	}
	return st, nil
}

// state returns the chat state, creating an unloaded one on first use.
func (s *TrackerService) state(chatID int64) *chatState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.chats[chatID]
	if !ok {
		st = &chatState{}
		s.chats[chatID] = st
	}
	return st
}

// driveToken returns the user's Drive refresh token or service.ErrNotConnected.
func (s *TrackerService) driveToken(ctx context.Context, chatID int64) (string, error) {
	user, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", service.ErrNotConnected
		}
		slog.Error("got error from repo.GetUser", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
		return "", err
	}
	if !user.DriveConnected() {
		return "", service.ErrNotConnected
	}
	return user.DriveRefreshToken, nil
}

// load replaces st with the remote document. Called with st.mu held.
func (s *TrackerService) load(ctx context.Context, chatID int64, st *chatState) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TrackerService.load"

	slog.Debug("load start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("load finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	token, err := s.driveToken(ctx, chatID)
	if err != nil {
		return err
	}

	var data model.AppData
	raw, err := s.storage.Download(ctx, token, s.cfg.GoogleDrive.FileName)
	switch {
	case errors.Is(err, externalApi.ErrNotFound):
		slog.Info("no remote document, starting empty", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
		data = model.EmptyAppData(s.now())
	case err != nil:
		slog.Error("got error from storage.Download", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	default:
		data, err = validation.Validate(raw, validation.SourceLoad)
		if err != nil {
			slog.Error("remote document is invalid", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return err
		}
	}

	st.refreshToken = token
	st.data = data
	st.loaded = true
	s.afterChange(ctx, chatID, st)

	return nil
}

// afterChange re-derives the notification timers and the event snapshot. Called with st.mu held.
func (s *TrackerService) afterChange(ctx context.Context, chatID int64, st *chatState) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TrackerService.afterChange"
	now := s.now()
	granted := st.data.NotificationsGranted()

	notifier.CancelAll(st.handles)
	st.handles = nil

	upcoming := events.GetUpcomingEvents(st.data, now, s.cfg.Notifications.SessionWindowDays)
	handles, err := s.sessions.Schedule(ctx, chatID, upcoming, now, granted)
	if err != nil {
		slog.Error("can't schedule notifications", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}
	st.handles = handles

	snapshot := []model.UpcomingEvent{}
	if granted {
		snapshot = events.GetUpcomingEvents(st.data, now, s.cfg.Notifications.SnapshotWindowDays)
	}
	if err = s.cache.SetEvents(ctx, chatID, model.FormatDate(now), snapshot); err != nil {
		slog.Warn("can't cache upcoming events", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}
}

// scheduleSave (re)starts the debounce timer. Called with st.mu held.
func (s *TrackerService) scheduleSave(chatID int64, st *chatState) {
	if st.saveTimer != nil {
		st.saveTimer.Stop()
	}
	st.saveTimer = time.AfterFunc(s.cfg.GoogleDrive.SaveDebounce, func() {
		ctx := utils.NewCtxWithRqID(context.Background())
		if err := s.flush(ctx, chatID, st); err != nil {
			slog.Error("debounced save failed",
				slog.String("rqID", utils.GetRequestIDFromCtx(ctx)),
				slog.Int64("chatID", chatID),
				slog.String("err", err.Error()),
			)
		}
	})
}

// stopSave cancels a pending debounced save and reports whether one was pending.
// Called with st.mu held.
func stopSave(st *chatState) bool {
	if st.saveTimer == nil {
		return false
	}
	pending := st.saveTimer.Stop()
	st.saveTimer = nil
	return pending
}

// flush uploads the current document. Must be called without st.mu held.
func (s *TrackerService) flush(ctx context.Context, chatID int64, st *chatState) error {
	st.saveMu.Lock()
	defer st.saveMu.Unlock()

	st.mu.Lock()
	data := st.data.Clone()
	token := st.refreshToken
	st.mu.Unlock()

	return s.upload(ctx, chatID, token, data)
}

func (s *TrackerService) upload(ctx context.Context, chatID int64, token string, data model.AppData) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TrackerService.upload"

	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	slog.Debug("upload start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))

	if err = s.storage.Upload(ctx, token, s.cfg.GoogleDrive.FileName, body); err != nil {
		return err
	}

	slog.Debug("upload finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	return nil
}

// forget drops the in-memory state of a chat, flushing a pending save first.
func (s *TrackerService) forget(ctx context.Context, chatID int64) {
	s.mu.Lock()
	st, ok := s.chats[chatID]
	delete(s.chats, chatID)
	s.mu.Unlock()
	if !ok {
		return
	}

	st.mu.Lock()
	pending := stopSave(st)
	notifier.CancelAll(st.handles)
	st.handles = nil
	st.mu.Unlock()

	if pending {
		if err := s.flush(ctx, chatID, st); err != nil {
			slog.Error("can't flush pending save", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.Int64("chatID", chatID), slog.String("err", err.Error()))
		}
	}
}
