package notifier

import (
	"context"
	"errors"
	"log/slog"

	"github.com/KotFed0t/grant_tracker_bot/data/repository"
	"github.com/KotFed0t/grant_tracker_bot/utils"
)

// DeliveryLog remembers which notifications went out.
// MarkDelivered returns repository.ErrAlreadyExists for a key seen before.
type DeliveryLog interface {
	MarkDelivered(ctx context.Context, chatID int64, dedupeKey string) error
}

// Deduplicating drops notifications whose key was already delivered to the chat.
type Deduplicating struct {
	log  DeliveryLog
	next Deliverer
}

func NewDeduplicating(log DeliveryLog, next Deliverer) *Deduplicating {
	return &Deduplicating{log: log, next: next}
}

func (d *Deduplicating) Deliver(ctx context.Context, chatID int64, title, body, dedupeKey string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Deduplicating.Deliver"

	err := d.log.MarkDelivered(ctx, chatID, dedupeKey)
	if errors.Is(err, repository.ErrAlreadyExists) {
		slog.Debug("notification already delivered", slog.String("rqID", rqID), slog.String("op", op), slog.String("key", dedupeKey))
		return nil
	}
	if err != nil {
		// delivery does not depend on the log
		slog.Warn("can't record notification delivery", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	return d.next.Deliver(ctx, chatID, title, body, dedupeKey)
}
