package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stillmind-app/checkin-engine/internal/adapters/repository"
	"github.com/stillmind-app/checkin-engine/internal/core/domain"
	"github.com/stillmind-app/checkin-engine/internal/core/services"
	"github.com/stillmind-app/checkin-engine/internal/core/workers"
)

type MockCheckinRepo struct {
	mock.Mock
}

func (m *MockCheckinRepo) Create(ctx context.Context, record *domain.CheckinRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockCheckinRepo) GetByID(ctx context.Context, id string) (*domain.CheckinRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckinRecord), args.Error(1)
}

func (m *MockCheckinRepo) ListByUser(ctx context.Context, userKey string) ([]*domain.CheckinRecord, error) {
	args := m.Called(ctx, userKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CheckinRecord), args.Error(1)
}

func (m *MockCheckinRepo) ListByUserAndDate(ctx context.Context, userKey, date string) ([]*domain.CheckinRecord, error) {
	args := m.Called(ctx, userKey, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CheckinRecord), args.Error(1)
}

func (m *MockCheckinRepo) ListByUserAndMonth(ctx context.Context, userKey, month string) ([]*domain.CheckinRecord, error) {
	args := m.Called(ctx, userKey, month)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CheckinRecord), args.Error(1)
}

func (m *MockCheckinRepo) UpdateReflectionIDs(ctx context.Context, id string, ids domain.ReflectionIDList) error {
	args := m.Called(ctx, id, ids)
	return args.Error(0)
}

type MockStatsRepo struct {
	mock.Mock
}

func (m *MockStatsRepo) Get(ctx context.Context, userKey string) (*domain.UserStats, error) {
	args := m.Called(ctx, userKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserStats), args.Error(1)
}

func (m *MockStatsRepo) Save(ctx context.Context, stats *domain.UserStats) error {
	args := m.Called(ctx, stats)
	return args.Error(0)
}

func (m *MockStatsRepo) Apply(ctx context.Context, userKey string, apply func(*domain.UserStats) error) (*domain.UserStats, error) {
	args := m.Called(ctx, userKey, apply)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserStats), args.Error(1)
}

func TestCheckinService_Record(t *testing.T) {
	ctx := context.Background()
	userKey := "user-123"
	today := time.Now().Format(domain.DateLayout)
	thisMonth := domain.MonthOf(today)

	t.Run("Success: record persisted and all aggregates updated", func(t *testing.T) {
		checkins := repository.NewInMemoryCheckinRepository()
		stats := repository.NewInMemoryStatsRepository()
		rankings := repository.NewInMemoryRankingRepository()

		svc := services.NewCheckinService(checkins, stats, rankings, nil, nil)

		out, err := svc.Record(ctx, services.RecordCheckinInput{
			UserKey:         userKey,
			DurationMinutes: 25,
			Rating:          4,
		})
		require.NoError(t, err)
		require.NotNil(t, out)
		assert.NotEmpty(t, out.RecordID)
		assert.Equal(t, today, out.Date)

		record, err := checkins.GetByID(ctx, out.RecordID)
		require.NoError(t, err)
		assert.Equal(t, 25, record.DurationMinutes)

		userStats, err := stats.Get(ctx, userKey)
		require.NoError(t, err)
		assert.Equal(t, 1, userStats.TotalCount)
		assert.Equal(t, 25, userStats.TotalDurationMinutes)
		assert.Equal(t, 1, userStats.CurrentStreak)

		daily, err := rankings.Top(ctx, domain.PeriodDaily, today, 10)
		require.NoError(t, err)
		require.Len(t, daily, 1)
		assert.Equal(t, 25, daily[0].DurationMinutes)

		monthly, err := rankings.Top(ctx, domain.PeriodMonthly, thisMonth, 10)
		require.NoError(t, err)
		require.Len(t, monthly, 1)

		total, err := rankings.Top(ctx, domain.PeriodTotal, domain.PeriodAll, 10)
		require.NoError(t, err)
		require.Len(t, total, 1)
		assert.Equal(t, 1, total[0].Count)
	})

	t.Run("Leaderboard additivity: N same-day check-ins sum up", func(t *testing.T) {
		checkins := repository.NewInMemoryCheckinRepository()
		stats := repository.NewInMemoryStatsRepository()
		rankings := repository.NewInMemoryRankingRepository()

		svc := services.NewCheckinService(checkins, stats, rankings, nil, nil)

		durations := []int{10, 15, 20}
		for _, d := range durations {
			_, err := svc.Record(ctx, services.RecordCheckinInput{
				UserKey:         userKey,
				DurationMinutes: d,
				Rating:          3,
			})
			require.NoError(t, err)
		}

		daily, err := rankings.Top(ctx, domain.PeriodDaily, today, 10)
		require.NoError(t, err)
		require.Len(t, daily, 1)
		assert.Equal(t, 45, daily[0].DurationMinutes)
		assert.Equal(t, 3, daily[0].Count)

		userStats, err := stats.Get(ctx, userKey)
		require.NoError(t, err)
		assert.Equal(t, 1, userStats.TotalDays, "Same-day repeats count one day")
		assert.Equal(t, 3, userStats.TotalCount)
	})

	t.Run("Validation: rejected before any write", func(t *testing.T) {
		checkins := new(MockCheckinRepo)
		stats := new(MockStatsRepo)
		rankings := repository.NewInMemoryRankingRepository()

		svc := services.NewCheckinService(checkins, stats, rankings, nil, nil)

		_, err := svc.Record(ctx, services.RecordCheckinInput{
			UserKey:         userKey,
			DurationMinutes: -5,
			Rating:          3,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidDuration)

		_, err = svc.Record(ctx, services.RecordCheckinInput{
			UserKey:         userKey,
			DurationMinutes: 10,
			Rating:          9,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidRating)

		checkins.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		stats.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Record write failure surfaces to the caller", func(t *testing.T) {
		checkins := new(MockCheckinRepo)
		stats := new(MockStatsRepo)
		rankings := repository.NewInMemoryRankingRepository()

		dbErr := errors.New("connection lost")
		checkins.On("Create", ctx, mock.Anything).Return(dbErr)

		svc := services.NewCheckinService(checkins, stats, rankings, nil, nil)

		out, err := svc.Record(ctx, services.RecordCheckinInput{
			UserKey:         userKey,
			DurationMinutes: 10,
			Rating:          3,
		})
		assert.ErrorIs(t, err, dbErr)
		assert.Nil(t, out)

		stats.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Aggregation failure is swallowed and repaired", func(t *testing.T) {
		checkins := repository.NewInMemoryCheckinRepository()
		brokenStats := new(MockStatsRepo)
		goodStats := repository.NewInMemoryStatsRepository()
		rankings := repository.NewInMemoryRankingRepository()

		brokenStats.On("Apply", ctx, userKey, mock.Anything).Return(nil, errors.New("stats store down"))

		worker := workers.NewRepairWorker(checkins, goodStats, rankings, nil)
		workerCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		worker.Start(workerCtx)

		svc := services.NewCheckinService(checkins, brokenStats, rankings, worker, nil)

		out, err := svc.Record(ctx, services.RecordCheckinInput{
			UserKey:         userKey,
			DurationMinutes: 30,
			Rating:          5,
		})
		require.NoError(t, err, "The check-in itself must succeed")
		require.NotNil(t, out)

		require.Eventually(t, func() bool {
			stats, err := goodStats.Get(ctx, userKey)
			return err == nil && stats.TotalCount == 1 && stats.TotalDurationMinutes == 30
		}, 2*time.Second, 10*time.Millisecond, "Repair worker must rebuild stats from the record log")
	})
}

func TestCheckinService_ListByDate(t *testing.T) {
	ctx := context.Background()
	userKey := "user-123"

	checkins := repository.NewInMemoryCheckinRepository()
	stats := repository.NewInMemoryStatsRepository()
	rankings := repository.NewInMemoryRankingRepository()
	svc := services.NewCheckinService(checkins, stats, rankings, nil, nil)

	today := time.Now().Format(domain.DateLayout)

	for i := 0; i < 2; i++ {
		_, err := svc.Record(ctx, services.RecordCheckinInput{
			UserKey:         userKey,
			DurationMinutes: 10,
			Rating:          3,
		})
		require.NoError(t, err)
	}

	t.Run("By day", func(t *testing.T) {
		records, err := svc.ListByDate(ctx, userKey, today)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("All records when date omitted", func(t *testing.T) {
		records, err := svc.ListByDate(ctx, userKey, "")
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("Invalid date rejected", func(t *testing.T) {
		_, err := svc.ListByDate(ctx, userKey, "01/02/2026")
		assert.ErrorIs(t, err, domain.ErrInvalidDate)
	})

	t.Run("Empty day returns empty list", func(t *testing.T) {
		records, err := svc.ListByDate(ctx, userKey, "1999-01-01")
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}
