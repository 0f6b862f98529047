package trackerService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/grant_tracker_bot/internal/events"
	"github.com/KotFed0t/grant_tracker_bot/internal/externalApi"
	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/KotFed0t/grant_tracker_bot/internal/portfolio"
	"github.com/KotFed0t/grant_tracker_bot/internal/service"
	"github.com/KotFed0t/grant_tracker_bot/utils"
)

func (s *TrackerService) Dashboard(ctx context.Context, chatID int64) (model.Dashboard, error) {
	data, err := s.Data(ctx, chatID)
	if err != nil {
		return model.Dashboard{}, err
	}
	return portfolio.BuildDashboard(data), nil
}

// Upcoming lists the events of the next days days, the session window when days <= 0.
func (s *TrackerService) Upcoming(ctx context.Context, chatID int64, days int) ([]model.UpcomingEvent, error) {
	if days <= 0 {
		days = s.cfg.Notifications.SessionWindowDays
	}
	data, err := s.Data(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return events.GetUpcomingEvents(data, s.now(), days), nil
}

// Report builds the spreadsheet export.
func (s *TrackerService) Report(ctx context.Context, chatID int64) (fileBytes []byte, filename string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TrackerService.Report"

	slog.Debug("Report start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	defer func() {
		slog.Debug("Report finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("chatID", chatID))
	}()

	data, err := s.Data(ctx, chatID)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	report := model.Report{
		Dashboard: portfolio.BuildDashboard(data),
		Upcoming:  events.GetUpcomingEvents(data, now, s.cfg.Notifications.SnapshotWindowDays),
	}

	fileBytes, ext, err := s.reports.Generate(ctx, report)
	if err != nil {
		slog.Error("got error from reports.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	return fileBytes, fmt.Sprintf("stock-tracker-report-%s%s", model.FormatDate(now), ext), nil
}

// SetPrice records a manually entered share price for today.
func (s *TrackerService) SetPrice(ctx context.Context, chatID int64, price float64) (model.AppData, error) {
	now := s.now()
	return s.Update(ctx, chatID, func(prev model.AppData) model.AppData {
		return model.ApplyPriceUpdate(prev, price, now)
	})
}

// RefreshPrice fetches the latest quote of the configured ticker and records it.
func (s *TrackerService) RefreshPrice(ctx context.Context, chatID int64) (model.AppData, error) {
	price, err := s.latestPrice(ctx)
	if err != nil {
		return model.AppData{}, err
	}
	return s.SetPrice(ctx, chatID, price)
}

func (s *TrackerService) latestPrice(ctx context.Context) (float64, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "TrackerService.latestPrice"

	price, err := s.quotes.GetPrice(ctx, s.cfg.API.QuoteApi.Ticker)
	if err != nil {
		if errors.Is(err, externalApi.ErrNotFound) {
			slog.Warn("no quote for ticker", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", s.cfg.API.QuoteApi.Ticker))
			return 0, service.ErrNotFound
		}
		slog.Error("got error from quotes.GetPrice", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return 0, err
	}

	return price.InexactFloat64(), nil
}
