package dbModel

import (
	"database/sql"
	"time"
)

type User struct {
	UserID            int64          `db:"user_id"`
	ChatID            int64          `db:"chat_id"`
	DriveRefreshToken sql.NullString `db:"drive_refresh_token"`
	CreatedAt         time.Time      `db:"dt_create"`
}
