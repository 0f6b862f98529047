package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/KotFed0t/grant_tracker_bot/data/repository"
	"github.com/KotFed0t/grant_tracker_bot/internal/converter/dbConverter"
	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/KotFed0t/grant_tracker_bot/internal/model/dbModel"
	"github.com/KotFed0t/grant_tracker_bot/utils"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

func (r *Postgres) InsertUser(ctx context.Context, chatID int64) (userID int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `INSERT INTO users(chat_id) VALUES($1) RETURNING user_id`

	slog.Debug("Postgres.InsertUser start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
			slog.Error("Postgres.InsertUser failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("Postgres.InsertUser completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).QueryRowContext(ctx, query, chatID).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, repository.ErrAlreadyExists
		}
		return 0, err
	}

	return userID, nil
}

func (r *Postgres) GetUser(ctx context.Context, chatID int64) (user model.User, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT user_id, chat_id, drive_refresh_token, dt_create
		FROM users
		WHERE chat_id = $1
	`

	slog.Debug("Postgres.GetUser start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("Postgres.GetUser failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("Postgres.GetUser completed", slog.String("rqID", rqID))
		}
	}()

	dbUser := dbModel.User{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, chatID).StructScan(&dbUser)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, repository.ErrNotFound
		}
		return model.User{}, err
	}

	return dbConverter.ConvertUser(dbUser), nil
}

func (r *Postgres) SetDriveToken(ctx context.Context, chatID int64, refreshToken string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `UPDATE users SET drive_refresh_token = NULLIF($1, '') WHERE chat_id = $2`

	slog.Debug("Postgres.SetDriveToken start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("Postgres.SetDriveToken failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("Postgres.SetDriveToken completed", slog.String("rqID", rqID))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, refreshToken, chatID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetUsersWithDrive returns every user that has a Drive token.
func (r *Postgres) GetUsersWithDrive(ctx context.Context) (users []model.User, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `
		SELECT user_id, chat_id, drive_refresh_token, dt_create
		FROM users
		WHERE drive_refresh_token IS NOT NULL
		ORDER BY user_id
	`

	slog.Debug("Postgres.GetUsersWithDrive start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("Postgres.GetUsersWithDrive failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("Postgres.GetUsersWithDrive completed", slog.String("rqID", rqID), slog.Int("count", len(users)))
		}
	}()

	dbUsers := make([]dbModel.User, 0)
	err = r.txOrDb(ctx).SelectContext(ctx, &dbUsers, query)
	if err != nil {
		return nil, err
	}

	return dbConverter.ConvertUsers(dbUsers), nil
}
