package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KotFed0t/grant_tracker_bot/config"
	"github.com/KotFed0t/grant_tracker_bot/data"
	"github.com/KotFed0t/grant_tracker_bot/data/cache"
	"github.com/KotFed0t/grant_tracker_bot/data/repository/postgres"
	"github.com/KotFed0t/grant_tracker_bot/data/session"
	"github.com/KotFed0t/grant_tracker_bot/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/KotFed0t/grant_tracker_bot/internal/externalApi/quoteApi"
	"github.com/KotFed0t/grant_tracker_bot/internal/notifier"
	"github.com/KotFed0t/grant_tracker_bot/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/grant_tracker_bot/internal/scheduler"
	"github.com/KotFed0t/grant_tracker_bot/internal/service/trackerService"
	"github.com/KotFed0t/grant_tracker_bot/internal/tgbot"
	"github.com/KotFed0t/grant_tracker_bot/internal/transport/telegram"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)
	redisSession := session.NewRedisSession(redisClient, cfg)

	quoteApiClient := quoteApi.New(cfg)

	reportGenerator := xslsxGenerator.New()

	googleDrive := googleDriveApi.New(cfg)

	sched := scheduler.New(cfg.Notifications.MustLocation())
	sched.Start()
	defer sched.Stop()

	tgBot := tgbot.New(cfg, redisSession)

	deliverer := notifier.NewDeduplicating(pgRepo, tgBot)
	sessionNotifier := notifier.NewSessionNotifier(sched, deliverer)

	trackerSrv := trackerService.New(cfg, pgRepo, redisCache, googleDrive, quoteApiClient, reportGenerator, sessionNotifier, deliverer)
	defer trackerSrv.Close(ctx)

	sched.NewCrontabJob("notify todays events", trackerSrv.NotifyTodaysEvents, cfg.Jobs.NotifyCrontab, false)
	sched.NewIntervalJob("refresh prices", trackerSrv.RefreshPrices, cfg.Jobs.RefreshPriceInterval, false)
	sched.NewCrontabJob("prune delivery log", trackerSrv.PruneDeliveries, "0 30 3 * * *", false)

	tgController := telegram.NewController(cfg, trackerSrv, redisSession)

	tgBot.Start(tgController)
	defer tgBot.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
