// Package trackerService owns the per-chat AppData: it loads the document from Drive,
// applies updates, debounces saves and keeps notifications in sync with the data.
package trackerService

import (
	"context"
	"sync"
	"time"

	"github.com/KotFed0t/grant_tracker_bot/config"
	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/KotFed0t/grant_tracker_bot/internal/notifier"
	"github.com/shopspring/decimal"
)

type Repository interface {
	InsertUser(ctx context.Context, chatID int64) (userID int64, err error)
	GetUser(ctx context.Context, chatID int64) (model.User, error)
	SetDriveToken(ctx context.Context, chatID int64, refreshToken string) error
	GetUsersWithDrive(ctx context.Context) ([]model.User, error)
	DeleteDeliveredBefore(ctx context.Context, before time.Time) (int64, error)
	WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error
}

type Cache interface {
	SetEvents(ctx context.Context, chatID int64, date string, events []model.UpcomingEvent) error
	GetEvents(ctx context.Context, chatID int64) (date string, events []model.UpcomingEvent, err error)
	DeleteEvents(ctx context.Context, chatID int64) error
}

type Storage interface {
	Download(ctx context.Context, refreshToken, name string) ([]byte, error)
	Upload(ctx context.Context, refreshToken, name string, body []byte) error
}

type QuoteApi interface {
	GetPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, report model.Report) (fileBytes []byte, fileExtension string, err error)
}

type SessionNotifier interface {
	Schedule(ctx context.Context, chatID int64, events []model.UpcomingEvent, now time.Time, granted bool) ([]notifier.Handle, error)
}

// chatState is the in-memory copy of one user's document.
type chatState struct {
	mu           sync.Mutex
	loaded       bool
	refreshToken string
	data         model.AppData
	saveTimer    *time.Timer
	handles      []notifier.Handle

	// saveMu serializes uploads so the last finished upload carries the latest data.
	saveMu sync.Mutex
}

type TrackerService struct {
	cfg       *config.Config
	repo      Repository
	cache     Cache
	storage   Storage
	quotes    QuoteApi
	reports   ReportGenerator
	sessions  SessionNotifier
	deliverer notifier.Deliverer
	loc       *time.Location
	clock     func() time.Time

	mu    sync.Mutex
	chats map[int64]*chatState
}

func New(
	cfg *config.Config,
	repo Repository,
	cache Cache,
	storage Storage,
	quotes QuoteApi,
	reports ReportGenerator,
	sessions SessionNotifier,
	deliverer notifier.Deliverer,
) *TrackerService {
	return &TrackerService{
		cfg:       cfg,
		repo:      repo,
		cache:     cache,
		storage:   storage,
		quotes:    quotes,
		reports:   reports,
		sessions:  sessions,
		deliverer: deliverer,
		loc:       cfg.Notifications.MustLocation(),
		clock:     time.Now,
		chats:     make(map[int64]*chatState),
	}
}

func (s *TrackerService) now() time.Time {
	return s.clock().In(s.loc)
}
