package dbConverter

import (
	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/KotFed0t/grant_tracker_bot/internal/model/dbModel"
)

func ConvertUser(dbUser dbModel.User) model.User {
	return model.User{
		UserID:            dbUser.UserID,
		ChatID:            dbUser.ChatID,
		DriveRefreshToken: dbUser.DriveRefreshToken.String,
		CreatedAt:         dbUser.CreatedAt,
	}
}

func ConvertUsers(dbUsers []dbModel.User) []model.User {
	res := make([]model.User, 0, len(dbUsers))
	for _, u := range dbUsers {
		res = append(res, ConvertUser(u))
	}
	return res
}
