package services

import (
	"context"
	"errors"
	"time"

	"github.com/stillmind-app/checkin-engine/internal/core/domain"
)

var ErrInvalidPeriodType = errors.New("invalid period type (must be daily, monthly, or total)")

const (
	DefaultRankingLimit = 50
	MaxRankingLimit     = 100
)

type RankingService struct {
	rankings domain.RankingRepository
	now      func() time.Time
}

func NewRankingService(rankings domain.RankingRepository) *RankingService {
	return &RankingService{
		rankings: rankings,
		now:      time.Now,
	}
}

// Top returns the leaderboard for a projection. An empty period means the
// current one (today / this month / all-time). Rank is assigned from sort
// position, so tied durations get distinct consecutive ranks; the store
// guarantees a stable order, which keeps pagination deterministic.
func (s *RankingService) Top(ctx context.Context, p domain.PeriodType, period string, limit int) ([]*domain.RankedEntry, error) {
	if !p.Valid() {
		return nil, ErrInvalidPeriodType
	}

	if period == "" {
		period = domain.PeriodKey(p, s.now().Format(domain.DateLayout))
	}

	if limit <= 0 {
		limit = DefaultRankingLimit
	}
	if limit > MaxRankingLimit {
		limit = MaxRankingLimit
	}

	entries, err := s.rankings.Top(ctx, p, period, limit)
	if err != nil {
		return nil, err
	}

	ranked := make([]*domain.RankedEntry, 0, len(entries))
	for i, e := range entries {
		ranked = append(ranked, &domain.RankedEntry{
			UserKey:         e.UserKey,
			DurationMinutes: e.DurationMinutes,
			Count:           e.Count,
			Rank:            i + 1,
		})
	}

	return ranked, nil
}
