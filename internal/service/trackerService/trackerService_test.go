package trackerService

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/KotFed0t/grant_tracker_bot/config"
	"github.com/KotFed0t/grant_tracker_bot/data/cache"
	"github.com/KotFed0t/grant_tracker_bot/data/repository"
	"github.com/KotFed0t/grant_tracker_bot/internal/externalApi"
	"github.com/KotFed0t/grant_tracker_bot/internal/model"
	"github.com/KotFed0t/grant_tracker_bot/internal/service"
	"github.com/KotFed0t/grant_tracker_bot/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	chatID   = int64(42)
	token    = "refresh-token"
	fileName = "stock-tracker-v1.json"
)

const remoteDoc = `{
  "schemaVersion": 1,
  "currentPrice": 20,
  "asOfDate": "2025-02-01",
  "grants": [
    {"id": "g1", "year": 2022, "type": "Purchase", "shares": 100, "price": 10,
     "vestStart": "2023-03-01", "vestPeriods": 4, "passedPeriods": 2}
  ],
  "baseLoans": [],
  "ratesByYear": [],
  "refinanceEvents": [],
  "shareEvents": [{"id": "s1", "date": "2023-03-01", "vestedDelta": 100, "label": "vest"}],
  "priceHistory": [{"date": "2025-02-01", "price": 20}],
  "notificationPreference": "granted"
}`

var today = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type deps struct {
	repo      *MockRepository
	cache     *MockCache
	storage   *MockStorage
	quotes    *MockQuoteApi
	reports   *MockReportGenerator
	sessions  *MockSessionNotifier
	deliverer *MockDeliverer
}

func newTestService(t *testing.T) (*TrackerService, deps) {
	t.Helper()

	cfg := &config.Config{
		API: config.API{QuoteApi: config.QuoteApi{Ticker: "ACME"}},
		GoogleDrive: config.GoogleDrive{
			FileName:     fileName,
			SaveDebounce: 20 * time.Millisecond,
		},
		Notifications: config.Notifications{
			SessionWindowDays:  30,
			SnapshotWindowDays: 60,
			Location:           "UTC",
		},
	}

	d := deps{
		repo:      new(MockRepository),
		cache:     new(MockCache),
		storage:   new(MockStorage),
		quotes:    new(MockQuoteApi),
		reports:   new(MockReportGenerator),
		sessions:  new(MockSessionNotifier),
		deliverer: new(MockDeliverer),
	}
	d.cache.On("SetEvents", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	d.sessions.On("Schedule", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil).Maybe()

	s := New(cfg, d.repo, d.cache, d.storage, d.quotes, d.reports, d.sessions, d.deliverer)
	s.clock = func() time.Time { return today }
	return s, d
}

func connected(d deps) {
	d.repo.On("GetUser", mock.Anything, chatID).Return(model.User{ChatID: chatID, DriveRefreshToken: token}, nil)
}

func TestData_NotConnected(t *testing.T) {
	tests := []struct {
		name string
		user model.User
		err  error
	}{
		{name: "unknown user", user: model.User{}, err: repository.ErrNotFound},
		{name: "no drive token", user: model.User{ChatID: chatID}, err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, d := newTestService(t)
			d.repo.On("GetUser", mock.Anything, chatID).Return(tt.user, tt.err)

			_, err := s.Data(context.Background(), chatID)
			assert.ErrorIs(t, err, service.ErrNotConnected)
			d.storage.AssertNotCalled(t, "Download", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestData_MissingRemoteStartsEmpty(t *testing.T) {
	s, d := newTestService(t)
	connected(d)
	d.storage.On("Download", mock.Anything, token, fileName).Return(nil, externalApi.ErrNotFound)

	data, err := s.Data(context.Background(), chatID)
	require.NoError(t, err)

	assert.Equal(t, model.EmptyAppData(today), data)
	d.cache.AssertCalled(t, "SetEvents", mock.Anything, chatID, "2025-03-01", []model.UpcomingEvent{})
	d.sessions.AssertCalled(t, "Schedule", mock.Anything, chatID, mock.Anything, today, false)
}

func TestData_InvalidRemoteDocument(t *testing.T) {
	s, d := newTestService(t)
	connected(d)
	d.storage.On("Download", mock.Anything, token, fileName).Return([]byte(`{"grants": 5}`), nil)

	_, err := s.Data(context.Background(), chatID)

	var verr *validation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validation.SourceLoad, verr.Source)
}

func TestData_LoadsOnce(t *testing.T) {
	s, d := newTestService(t)
	connected(d)
	d.storage.On("Download", mock.Anything, token, fileName).Return([]byte(remoteDoc), nil).Once()

	for i := 0; i < 3; i++ {
		data, err := s.Data(context.Background(), chatID)
		require.NoError(t, err)
		assert.Equal(t, 20.0, data.CurrentPrice)
	}
	d.storage.AssertNumberOfCalls(t, "Download", 1)
}

func TestUpdate_DebouncesSaves(t *testing.T) {
	s, d := newTestService(t)
	connected(d)
	d.storage.On("Download", mock.Anything, token, fileName).Return([]byte(remoteDoc), nil)

	uploads := make(chan []byte, 4)
	d.storage.On("Upload", mock.Anything, token, fileName, mock.Anything).
		Run(func(args mock.Arguments) { uploads <- args.Get(3).([]byte) }).
		Return(nil)

	ctx := context.Background()
	_, err := s.SetPrice(ctx, chatID, 21)
	require.NoError(t, err)
	data, err := s.SetPrice(ctx, chatID, 22)
	require.NoError(t, err)
	assert.Equal(t, 22.0, data.CurrentPrice)

	select {
	case body := <-uploads:
		var saved model.AppData
		require.NoError(t, json.Unmarshal(body, &saved))
		assert.Equal(t, 22.0, saved.CurrentPrice)
		assert.Equal(t, []model.PricePoint{{Date: "2025-02-01", Price: 20}, {Date: "2025-03-01", Price: 22}}, saved.PriceHistory)
	case <-time.After(time.Second):
		t.Fatal("document was not saved")
	}

	select {
	case <-uploads:
		t.Fatal("updates were not coalesced into one save")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSaveNow_CancelsPendingSave(t *testing.T) {
	s, d := newTestService(t)
	connected(d)
	d.storage.On("Download", mock.Anything, token, fileName).Return([]byte(remoteDoc), nil)
	d.storage.On("Upload", mock.Anything, token, fileName, mock.Anything).Return(nil)

	ctx := context.Background()
	_, err := s.SetPrice(ctx, chatID, 30)
	require.NoError(t, err)
	require.NoError(t, s.SaveNow(ctx, chatID))

	time.Sleep(60 * time.Millisecond)
	d.storage.AssertNumberOfCalls(t, "Upload", 1)
}

func TestImport(t *testing.T) {
	imported := `{
	  "schemaVersion": 1, "currentPrice": 50, "asOfDate": "2025-02-20",
	  "grants": [], "baseLoans": [], "ratesByYear": [], "refinanceEvents": [],
	  "shareEvents": [], "priceHistory": []
	}`

	t.Run("replaces document after save", func(t *testing.T) {
		s, d := newTestService(t)
		connected(d)
		d.storage.On("Download", mock.Anything, token, fileName).Return([]byte(remoteDoc), nil)
		d.storage.On("Upload", mock.Anything, token, fileName, mock.Anything).Return(nil)

		data, err := s.Import(context.Background(), chatID, []byte(imported))
		require.NoError(t, err)
		assert.Equal(t, 50.0, data.CurrentPrice)

		current, err := s.Data(context.Background(), chatID)
		require.NoError(t, err)
		assert.Equal(t, data, current)
		d.storage.AssertNumberOfCalls(t, "Upload", 1)
	})

	t.Run("keeps previous document when save fails", func(t *testing.T) {
		s, d := newTestService(t)
		connected(d)
		d.storage.On("Download", mock.Anything, token, fileName).Return([]byte(remoteDoc), nil)
		d.storage.On("Upload", mock.Anything, token, fileName, mock.Anything).Return(errors.New("drive is down"))

		_, err := s.Import(context.Background(), chatID, []byte(imported))
		require.Error(t, err)

		current, err := s.Data(context.Background(), chatID)
		require.NoError(t, err)
		assert.Equal(t, 20.0, current.CurrentPrice)
		require.Len(t, current.Grants, 1)
	})

	t.Run("replaces an unreadable remote document", func(t *testing.T) {
		s, d := newTestService(t)
		connected(d)
		d.storage.On("Download", mock.Anything, token, fileName).Return([]byte(`{"grants": 5}`), nil)
		d.storage.On("Upload", mock.Anything, token, fileName, mock.Anything).Return(nil).Once()

		_, err := s.Data(context.Background(), chatID)
		var verr *validation.ValidationError
		require.ErrorAs(t, err, &verr)

		data, err := s.Import(context.Background(), chatID, []byte(imported))
		require.NoError(t, err)
		assert.Equal(t, 50.0, data.CurrentPrice)

		current, err := s.Data(context.Background(), chatID)
		require.NoError(t, err)
		assert.Equal(t, 50.0, current.CurrentPrice)
		d.storage.AssertNumberOfCalls(t, "Download", 1)
		d.storage.AssertExpectations(t)
	})

	t.Run("failed save keeps pending edit", func(t *testing.T) {
		s, d := newTestService(t)
		s.cfg.GoogleDrive.SaveDebounce = time.Hour
		connected(d)
		d.storage.On("Download", mock.Anything, token, fileName).Return([]byte(remoteDoc), nil)
		d.storage.On("Upload", mock.Anything, token, fileName, mock.Anything).Return(errors.New("drive is down")).Once()

		var saved []byte
		d.storage.On("Upload", mock.Anything, token, fileName, mock.Anything).
			Run(func(args mock.Arguments) { saved = args.Get(3).([]byte) }).
			Return(nil).Once()

		ctx := context.Background()
		_, err := s.SetPrice(ctx, chatID, 99)
		require.NoError(t, err)

		_, err = s.Import(ctx, chatID, []byte(imported))
		require.Error(t, err)

		s.Close(ctx)

		d.storage.AssertExpectations(t)
		var doc model.AppData
		require.NoError(t, json.Unmarshal(saved, &doc))
		assert.Equal(t, 99.0, doc.CurrentPrice)
	})

	t.Run("not connected", func(t *testing.T) {
		s, d := newTestService(t)
		d.repo.On("GetUser", mock.Anything, chatID).Return(model.User{ChatID: chatID}, nil)

		_, err := s.Import(context.Background(), chatID, []byte(imported))
		assert.ErrorIs(t, err, service.ErrNotConnected)
		d.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects invalid document without touching state", func(t *testing.T) {
		s, d := newTestService(t)

		_, err := s.Import(context.Background(), chatID, []byte(`{"grants": [{"id": ""}]}`))

		var verr *validation.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, validation.SourceImport, verr.Source)
		d.repo.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
		d.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestExport(t *testing.T) {
	s, d := newTestService(t)
	connected(d)
	d.storage.On("Download", mock.Anything, token, fileName).Return([]byte(remoteDoc), nil)

	body, name, err := s.Export(context.Background(), chatID)
	require.NoError(t, err)

	assert.Equal(t, "stock-tracker-export-2025-03-01.json", name)
	roundTrip, err := validation.ValidateAppData(body)
	require.NoError(t, err)
	assert.Equal(t, 20.0, roundTrip.CurrentPrice)
}

func TestRefreshPrice(t *testing.T) {
	t.Run("records quote", func(t *testing.T) {
		s, d := newTestService(t)
		connected(d)
		d.storage.On("Download", mock.Anything, token, fileName).Return([]byte(remoteDoc), nil)
		d.storage.On("Upload", mock.Anything, token, fileName, mock.Anything).Return(nil).Maybe()
		d.quotes.On("GetPrice", mock.Anything, "ACME").Return(decimal.RequireFromString("23.5"), nil)

		data, err := s.RefreshPrice(context.Background(), chatID)
		require.NoError(t, err)
		assert.Equal(t, 23.5, data.CurrentPrice)
		assert.Equal(t, "2025-03-01", data.AsOfDate)
	})

	t.Run("unknown ticker", func(t *testing.T) {
		s, d := newTestService(t)
		d.quotes.On("GetPrice", mock.Anything, "ACME").Return(decimal.Zero, externalApi.ErrNotFound)

		_, err := s.RefreshPrice(context.Background(), chatID)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestConnect_CreatesUser(t *testing.T) {
	s, d := newTestService(t)
	d.repo.On("GetUser", mock.Anything, chatID).Return(model.User{}, repository.ErrNotFound).Once()
	d.repo.On("InsertUser", mock.Anything, chatID).Return(int64(1), nil).Once()
	d.repo.On("SetDriveToken", mock.Anything, chatID, token).Return(nil).Once()
	connected(d)
	d.storage.On("Download", mock.Anything, token, fileName).Return(nil, externalApi.ErrNotFound)

	require.NoError(t, s.Connect(context.Background(), chatID, token))
	d.repo.AssertExpectations(t)
}

func TestDisconnect_FlushesAndForgets(t *testing.T) {
	s, d := newTestService(t)
	s.cfg.GoogleDrive.SaveDebounce = time.Hour
	connected(d)
	d.storage.On("Download", mock.Anything, token, fileName).Return([]byte(remoteDoc), nil)
	d.storage.On("Upload", mock.Anything, token, fileName, mock.Anything).Return(nil).Once()
	d.repo.On("SetDriveToken", mock.Anything, chatID, "").Return(nil).Once()
	d.cache.On("DeleteEvents", mock.Anything, chatID).Return(nil).Once()

	_, err := s.SetPrice(context.Background(), chatID, 25)
	require.NoError(t, err)

	require.NoError(t, s.Disconnect(context.Background(), chatID))
	d.storage.AssertExpectations(t)
	d.repo.AssertExpectations(t)
	assert.Empty(t, s.loadedChats())
}

func TestRegUser_AlreadyExists(t *testing.T) {
	s, d := newTestService(t)
	d.repo.On("InsertUser", mock.Anything, chatID).Return(int64(0), repository.ErrAlreadyExists)

	assert.NoError(t, s.RegUser(context.Background(), chatID))
}

func TestNotifyTodaysEvents(t *testing.T) {
	todays := model.UpcomingEvent{Date: "2025-03-01", Label: "2022 Purchase — vesting period 3", Type: model.EventVesting}
	later := model.UpcomingEvent{Date: "2025-03-10", Label: "later", Type: model.EventLoanDue}

	t.Run("fresh snapshot", func(t *testing.T) {
		s, d := newTestService(t)
		d.repo.On("GetUsersWithDrive", mock.Anything).Return([]model.User{{ChatID: chatID, DriveRefreshToken: token}}, nil)
		d.cache.On("GetEvents", mock.Anything, chatID).Return("2025-03-01", []model.UpcomingEvent{todays, later}, nil)
		d.deliverer.On("Deliver", mock.Anything, chatID, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		require.NoError(t, s.NotifyTodaysEvents(context.Background()))
		d.deliverer.AssertExpectations(t)
		d.storage.AssertNotCalled(t, "Download", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stale snapshot is recomputed", func(t *testing.T) {
		s, d := newTestService(t)
		connected(d)
		d.repo.On("GetUsersWithDrive", mock.Anything).Return([]model.User{{ChatID: chatID, DriveRefreshToken: token}}, nil)
		d.cache.On("GetEvents", mock.Anything, chatID).Return("2025-02-28", []model.UpcomingEvent{later}, nil)
		d.storage.On("Download", mock.Anything, token, fileName).Return([]byte(remoteDoc), nil)
		d.deliverer.On("Deliver", mock.Anything, chatID, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		require.NoError(t, s.NotifyTodaysEvents(context.Background()))
		d.deliverer.AssertExpectations(t)
	})

	t.Run("missing snapshot without permission", func(t *testing.T) {
		s, d := newTestService(t)
		connected(d)
		d.repo.On("GetUsersWithDrive", mock.Anything).Return([]model.User{{ChatID: chatID, DriveRefreshToken: token}}, nil)
		d.cache.On("GetEvents", mock.Anything, chatID).Return("", []model.UpcomingEvent(nil), cache.ErrNotFound)
		doc := []byte(strings.Replace(remoteDoc, `"granted"`, `"denied"`, 1))
		d.storage.On("Download", mock.Anything, token, fileName).Return(doc, nil)

		require.NoError(t, s.NotifyTodaysEvents(context.Background()))
		d.deliverer.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPruneDeliveries(t *testing.T) {
	s, d := newTestService(t)
	d.repo.On("DeleteDeliveredBefore", mock.Anything, today.AddDate(0, 0, -90)).Return(int64(3), nil)

	require.NoError(t, s.PruneDeliveries(context.Background()))
	d.repo.AssertExpectations(t)
}

func TestClose_FlushesPendingSave(t *testing.T) {
	s, d := newTestService(t)
	s.cfg.GoogleDrive.SaveDebounce = time.Hour
	connected(d)
	d.storage.On("Download", mock.Anything, token, fileName).Return([]byte(remoteDoc), nil)
	d.storage.On("Upload", mock.Anything, token, fileName, mock.Anything).Return(nil).Once()

	_, err := s.SetPrice(context.Background(), chatID, 25)
	require.NoError(t, err)

	s.Close(context.Background())
	d.storage.AssertExpectations(t)
}
