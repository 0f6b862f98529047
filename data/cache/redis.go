package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/grant_tracker_bot/config"
	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/KotFed0t/grant_tracker_bot/utils"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("cache: not found")

// eventsSnapshot is what the background notification path reads.
type eventsSnapshot struct {
	Date   string                `json:"date"`
	Events []model.UpcomingEvent `json:"events"`
}

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func eventsKey(chatID int64) string {
	return fmt.Sprintf("events:%d", chatID)
}

// SetEvents stores the upcoming events computed on date for the chat.
func (r *RedisCache) SetEvents(ctx context.Context, chatID int64, date string, events []model.UpcomingEvent) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.SetEvents"
	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(events)))

	snapshotJson, err := json.Marshal(eventsSnapshot{Date: date, Events: events})
	if err != nil {
		slog.Error("can't marshall events snapshot", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return errors.New("can't marshall events snapshot")
	}

	err = r.redis.Set(ctx, eventsKey(chatID), snapshotJson, r.cfg.Cache.EventsExpiration).Err()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Debug(op+" completed", slog.String("rqID", rqID), slog.String("op", op))

	return nil
}

// GetEvents returns the cached snapshot and the date it was computed on.
func (r *RedisCache) GetEvents(ctx context.Context, chatID int64) (date string, events []model.UpcomingEvent, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.GetEvents"
	slog.Debug(op+" start", slog.String("rqID", rqID), slog.String("op", op))

	res, err := r.redis.Get(ctx, eventsKey(chatID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil, ErrNotFound
		}
		slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", nil, err
	}

	snapshot := eventsSnapshot{}
	err = json.Unmarshal([]byte(res), &snapshot)
	if err != nil {
		slog.Error(
			"can't unmarshall events snapshot",
			slog.String("rqID", rqID),
			slog.String("op", op),
			slog.String("err", err.Error()),
			slog.String("resultFromRedis", res),
		)
		return "", nil, errors.New("can't unmarshall events snapshot")
	}

	slog.Debug(op+" finished", slog.String("rqID", rqID), slog.String("op", op))

	return snapshot.Date, snapshot.Events, nil
}

func (r *RedisCache) DeleteEvents(ctx context.Context, chatID int64) error {
	return r.redis.Del(ctx, eventsKey(chatID)).Err()
}
