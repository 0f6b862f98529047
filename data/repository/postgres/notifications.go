package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/KotFed0t/grant_tracker_bot/data/repository"
	"github.com/KotFed0t/grant_tracker_bot/utils"
	"github.com/jackc/pgx/v5/pgconn"
)

// MarkDelivered records a notification key for the chat.
// A key recorded before yields repository.ErrAlreadyExists.
func (r *Postgres) MarkDelivered(ctx context.Context, chatID int64, dedupeKey string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.MarkDelivered"
	query := `INSERT INTO delivered_notifications(chat_id, dedupe_key) VALUES($1, $2)`

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, chatID, dedupeKey)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrAlreadyExists
		}
		return err
	}

	return nil
}

// DeleteDeliveredBefore prunes the delivery log.
func (r *Postgres) DeleteDeliveredBefore(ctx context.Context, before time.Time) (deleted int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteDeliveredBefore"
	query := `DELETE FROM delivered_notifications WHERE dt_create < $1`

	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error(op+" failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug(op+" completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("deleted", deleted))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, before)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
