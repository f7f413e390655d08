package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stillmind-app/checkin-engine/internal/core/domain"
	"github.com/stillmind-app/checkin-engine/internal/core/workers"
)

// CheckinService runs the write pipeline: validate, append the record, then
// fold the event into the stats document and the three ranking projections.
//
// The record insert is the only failure the caller sees. The four writes are
// not transactional across documents; once the record is durable, aggregate
// failures are logged, swallowed and handed to the repair worker, which
// replays the log.
type CheckinService struct {
	checkins domain.CheckinRepository
	stats    domain.StatsRepository
	rankings domain.RankingRepository
	repair   *workers.RepairWorker
	logger   *zap.Logger
	now      func() time.Time
}

func NewCheckinService(
	checkins domain.CheckinRepository,
	stats domain.StatsRepository,
	rankings domain.RankingRepository,
	repair *workers.RepairWorker,
	logger *zap.Logger,
) *CheckinService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckinService{
		checkins: checkins,
		stats:    stats,
		rankings: rankings,
		repair:   repair,
		logger:   logger,
		now:      time.Now,
	}
}

type RecordCheckinInput struct {
	UserKey         string
	DurationMinutes int
	Rating          int
	ReflectionIDs   []string

	// Location is the caller's timezone; the calendar day is derived in it
	// so "today" matches what the user sees. Nil means server local time.
	Location *time.Location
}

type RecordCheckinOutput struct {
	RecordID   string `json:"record_id"`
	Date       string `json:"date"`
	OccurredAt int64  `json:"occurred_at"`
}

func (s *CheckinService) Record(ctx context.Context, input RecordCheckinInput) (*RecordCheckinOutput, error) {
	now := s.now()
	if input.Location != nil {
		now = now.In(input.Location)
	}

	record, err := domain.NewCheckinRecord(input.UserKey, input.DurationMinutes, input.Rating, input.ReflectionIDs, now)
	if err != nil {
		return nil, err
	}

	if err := s.checkins.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("checkin service: failed to persist record: %w", err)
	}

	if err := s.aggregate(ctx, record); err != nil {
		s.logger.Warn("aggregation failed after record write, scheduling repair",
			zap.String("user_key", record.UserKey),
			zap.String("record_id", record.ID),
			zap.Error(err))
		if s.repair != nil {
			s.repair.Enqueue(record.UserKey)
		}
	}

	return &RecordCheckinOutput{
		RecordID:   record.ID,
		Date:       record.Date,
		OccurredAt: record.OccurredAt,
	}, nil
}

func (s *CheckinService) aggregate(ctx context.Context, record *domain.CheckinRecord) error {
	_, err := s.stats.Apply(ctx, record.UserKey, func(stats *domain.UserStats) error {
		stats.ApplyCheckin(record.Date, record.DurationMinutes)
		return nil
	})
	if err != nil {
		return fmt.Errorf("stats update: %w", err)
	}

	for _, p := range domain.AllPeriodTypes {
		period := domain.PeriodKey(p, record.Date)
		if err := s.rankings.Increment(ctx, p, period, record.UserKey, record.DurationMinutes); err != nil {
			return fmt.Errorf("ranking update (%s/%s): %w", p, period, err)
		}
	}

	return nil
}

// ListByDate returns the user's records for one calendar day, or the full
// history when date is empty.
func (s *CheckinService) ListByDate(ctx context.Context, userKey, date string) ([]*domain.CheckinRecord, error) {
	if date == "" {
		return s.checkins.ListByUser(ctx, userKey)
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, domain.ErrInvalidDate
	}
	return s.checkins.ListByUserAndDate(ctx, userKey, date)
}
