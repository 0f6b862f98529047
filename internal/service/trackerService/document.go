package trackerService

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/KotFed0t/grant_tracker_bot/internal/validation"
	"github.com/KotFed0t/grant_tracker_bot/utils"
)

// Data returns a copy of the chat's current document.
func (s *TrackerService) Data(ctx context.Context, chatID int64) (model.AppData, error) {
	st, err := s.lockedState(ctx, chatID)
	if err != nil {
		return model.AppData{}, err
	}
	defer st.mu.Unlock()

	return st.data.Clone(), nil
}

// Update applies fn to the document. The new state is visible immediately,
// the remote save is debounced.
func (s *TrackerService) Update(ctx context.Context, chatID int64, fn func(prev model.AppData) model.AppData) (model.AppData, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TrackerService.Update"

	slog.Debug("Update start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("Update finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	st, err := s.lockedState(ctx, chatID)
	if err != nil {
		return model.AppData{}, err
	}
	defer st.mu.Unlock()

	st.data = fn(st.data)
	s.scheduleSave(chatID, st)
	s.afterChange(ctx, chatID, st)

	return st.data.Clone(), nil
}

// SaveNow cancels a pending debounced save and uploads immediately.
func (s *TrackerService) SaveNow(ctx context.Context, chatID int64) error {
	st, err := s.lockedState(ctx, chatID)
	if err != nil {
		return err
	}
	stopSave(st)
	st.mu.Unlock()

	return s.flush(ctx, chatID, st)
}

// Reload saves pending changes and downloads the document again.
func (s *TrackerService) Reload(ctx context.Context, chatID int64) (model.AppData, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TrackerService.Reload"

	slog.Debug("Reload start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("Reload finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	st, err := s.lockedState(ctx, chatID)
	if err != nil {
		return model.AppData{}, err
	}
	pending := stopSave(st)
	st.mu.Unlock()

	if pending {
		if err = s.flush(ctx, chatID, st); err != nil {
			return model.AppData{}, fmt.Errorf("save pending changes: %w", err)
		}
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if err = s.load(ctx, chatID, st); err != nil {
		return model.AppData{}, err
	}

	return st.data.Clone(), nil
}

// Import replaces the document with raw after validation and saves it right away.
// The current remote document is not loaded, so an unreadable one can be replaced.
// On any failure the previous document stays in place, including a pending save.
func (s *TrackerService) Import(ctx context.Context, chatID int64, raw []byte) (model.AppData, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TrackerService.Import"

	slog.Debug("Import start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID), slog.Int("bytes", len(raw)))
	defer func() {
		slog.Debug("Import finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	data, err := validation.ValidateAppData(raw)
	if err != nil {
		slog.Warn("import rejected", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return model.AppData{}, err
	}

	token, err := s.driveToken(ctx, chatID)
	if err != nil {
		return model.AppData{}, err
	}

	st := s.state(chatID)
	st.mu.Lock()
	pending := stopSave(st)
	st.mu.Unlock()

	st.saveMu.Lock()
	defer st.saveMu.Unlock()

	if err = s.upload(ctx, chatID, token, data); err != nil {
		slog.Error("can't save imported document", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		if pending {
			st.mu.Lock()
			s.scheduleSave(chatID, st)
			st.mu.Unlock()
		}
		return model.AppData{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.refreshToken = token
	st.data = data
	st.loaded = true
	s.afterChange(ctx, chatID, st)

	return st.data.Clone(), nil
}

// Export returns the document as indented JSON together with a file name for it.
func (s *TrackerService) Export(ctx context.Context, chatID int64) (body []byte, filename string, err error) {
	data, err := s.Data(ctx, chatID)
	if err != nil {
		return nil, "", err
	}

	body, err = json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("marshal document: %w", err)
	}

	return body, fmt.Sprintf("stock-tracker-export-%s.json", model.FormatDate(s.now())), nil
}
