package trackerService

import (
	"context"
	"time"

	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/KotFed0t/grant_tracker_bot/internal/notifier"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) InsertUser(ctx context.Context, chatID int64) (int64, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) GetUser(ctx context.Context, chatID int64) (model.User, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockRepository) SetDriveToken(ctx context.Context, chatID int64, refreshToken string) error {
	args := m.Called(ctx, chatID, refreshToken)
	return args.Error(0)
}

func (m *MockRepository) GetUsersWithDrive(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockRepository) DeleteDeliveredBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error {
	return tFunc(ctx)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) SetEvents(ctx context.Context, chatID int64, date string, events []model.UpcomingEvent) error {
	args := m.Called(ctx, chatID, date, events)
	return args.Error(0)
}

func (m *MockCache) GetEvents(ctx context.Context, chatID int64) (string, []model.UpcomingEvent, error) {
	args := m.Called(ctx, chatID)
	return args.String(0), args.Get(1).([]model.UpcomingEvent), args.Error(2)
}

func (m *MockCache) DeleteEvents(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Download(ctx context.Context, refreshToken, name string) ([]byte, error) {
	args := m.Called(ctx, refreshToken, name)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *MockStorage) Upload(ctx context.Context, refreshToken, name string, body []byte) error {
	args := m.Called(ctx, refreshToken, name, body)
	return args.Error(0)
}

type MockQuoteApi struct {
	mock.Mock
}

func (m *MockQuoteApi) GetPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	args := m.Called(ctx, ticker)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockReportGenerator struct {
	mock.Mock
}

func (m *MockReportGenerator) Generate(ctx context.Context, report model.Report) ([]byte, string, error) {
	args := m.Called(ctx, report)
	b, _ := args.Get(0).([]byte)
	return b, args.String(1), args.Error(2)
}

type MockSessionNotifier struct {
	mock.Mock
}

func (m *MockSessionNotifier) Schedule(ctx context.Context, chatID int64, events []model.UpcomingEvent, now time.Time, granted bool) ([]notifier.Handle, error) {
	args := m.Called(ctx, chatID, events, now, granted)
	h, _ := args.Get(0).([]notifier.Handle)
	return h, args.Error(1)
}

type MockDeliverer struct {
	mock.Mock
}

func (m *MockDeliverer) Deliver(ctx context.Context, chatID int64, title, body, dedupeKey string) error {
	args := m.Called(ctx, chatID, title, body, dedupeKey)
	return args.Error(0)
}
