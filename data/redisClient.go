package data

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KotFed0t/grant_tracker_bot/config"
	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 3 * time.Second

// NewRedisClient connects to the redis holding chat sessions and event snapshots.
// It retries like NewPostgresClient and panics when redis stays unreachable.
func NewRedisClient(cfg *config.Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	var err error
	for connAttempts := defaultConnAttemts; connAttempts > 0; connAttempts-- {
		if err = pingRedis(rdb); err == nil {
			break
		}
		slog.Info("Redis is trying to connect", slog.Int("attempts left", connAttempts), slog.String("err", err.Error()))
		time.Sleep(connTimeout)
	}
	if err != nil {
		slog.Error("Error while connecting Redis", slog.String("error", err.Error()))
		panic(err)
	}
	slog.Info("Redis connected", slog.String("addr", rdb.Options().Addr), slog.Int("db", cfg.Redis.DB))

	return rdb
}

func pingRedis(rdb *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	return rdb.Ping(ctx).Err()
}
