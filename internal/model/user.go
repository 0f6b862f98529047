package model

import "time"

// User is a bot user. DriveRefreshToken is empty until the user connects Google Drive.
type User struct {
	UserID            int64
	ChatID            int64
	DriveRefreshToken string
	CreatedAt         time.Time
}

func (u User) DriveConnected() bool {
	return u.DriveRefreshToken != ""
}
