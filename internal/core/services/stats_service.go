package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/stillmind-app/checkin-engine/internal/core/domain"
)

type StatsService struct {
	stats    domain.StatsRepository
	checkins domain.CheckinRepository
}

func NewStatsService(stats domain.StatsRepository, checkins domain.CheckinRepository) *StatsService {
	return &StatsService{
		stats:    stats,
		checkins: checkins,
	}
}

// GetUserStats returns the user's aggregation document, or a zero-valued
// default for users who never checked in.
func (s *StatsService) GetUserStats(ctx context.Context, userKey string) (*domain.UserStats, error) {
	stats, err := s.stats.Get(ctx, userKey)
	if err != nil {
		if errors.Is(err, domain.ErrStatsNotFound) {
			return domain.NewUserStats(userKey), nil
		}
		return nil, err
	}
	return stats, nil
}

type DailyBreakdown struct {
	Date            string `json:"date"`
	Count           int    `json:"count"`
	DurationMinutes int    `json:"duration_minutes"`
}

type MonthlyStats struct {
	Month                string           `json:"month"`
	DailyBreakdown       []DailyBreakdown `json:"daily_breakdown"`
	TotalCount           int              `json:"total_count"`
	TotalDurationMinutes int              `json:"total_duration_minutes"`
}

// GetMonthlyStats recomputes daily sub-totals by scanning the month's records
// and grouping by date. This path is independent of the incrementally
// maintained monthly_stats document; the repair worker is what reconciles the
// document side when the two diverge.
func (s *StatsService) GetMonthlyStats(ctx context.Context, userKey, month string) (*MonthlyStats, error) {
	// time.Parse tolerates non-padded input like "2026-3"; canonicalize so the
	// prefix match against stored YYYY-MM-DD dates always lines up.
	parsed, err := time.Parse(domain.MonthLayout, month)
	if err != nil {
		return nil, domain.ErrInvalidMonth
	}
	month = parsed.Format(domain.MonthLayout)

	records, err := s.checkins.ListByUserAndMonth(ctx, userKey, month)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*DailyBreakdown)
	result := &MonthlyStats{
		Month:          month,
		DailyBreakdown: make([]DailyBreakdown, 0),
	}

	for _, r := range records {
		day, ok := byDate[r.Date]
		if !ok {
			day = &DailyBreakdown{Date: r.Date}
			byDate[r.Date] = day
		}
		day.Count++
		day.DurationMinutes += r.DurationMinutes

		result.TotalCount++
		result.TotalDurationMinutes += r.DurationMinutes
	}

	for _, day := range byDate {
		result.DailyBreakdown = append(result.DailyBreakdown, *day)
	}
	sort.Slice(result.DailyBreakdown, func(i, j int) bool {
		return result.DailyBreakdown[i].Date < result.DailyBreakdown[j].Date
	})

	return result, nil
}
