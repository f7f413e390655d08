package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stillmind-app/checkin-engine/internal/core/domain"
)

var _ domain.RankingRepository = (*CachedRankingRepository)(nil)

const (
	rankingCacheTTL  = time.Minute
	rankingCacheSize = 100
)

// CachedRankingRepository puts a short-lived redis cache in front of
// leaderboard reads. Leaderboards are the hottest read path and tolerate a
// minute of staleness; writes invalidate the affected bucket.
type CachedRankingRepository struct {
	next   domain.RankingRepository
	cache  *redis.Client
	logger *zap.Logger
}

func NewCachedRankingRepository(next domain.RankingRepository, cache *redis.Client, logger *zap.Logger) *CachedRankingRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedRankingRepository{
		next:   next,
		cache:  cache,
		logger: logger,
	}
}

func (r *CachedRankingRepository) cacheKey(p domain.PeriodType, period string) string {
	return fmt.Sprintf("rankings:%s:%s", p, period)
}

func (r *CachedRankingRepository) invalidate(ctx context.Context, p domain.PeriodType, period string) {
	if err := r.cache.Del(ctx, r.cacheKey(p, period)).Err(); err != nil {
		r.logger.Warn("failed to invalidate ranking cache",
			zap.String("type", string(p)),
			zap.String("period", period),
			zap.Error(err))
	}
}

func (r *CachedRankingRepository) Top(ctx context.Context, p domain.PeriodType, period string, limit int) ([]*domain.RankingEntry, error) {
	key := r.cacheKey(p, period)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var entries []*domain.RankingEntry
		if err := json.Unmarshal([]byte(val), &entries); err == nil {
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			return entries, nil
		}

		r.logger.Warn("corrupted ranking cache entry, dropping key", zap.String("key", key))
		r.cache.Del(ctx, key)
	} else if err != redis.Nil {
		r.logger.Warn("ranking cache read error", zap.Error(err))
	}

	// Cache the full page so any smaller limit can be served from it.
	entries, err := r.next.Top(ctx, p, period, rankingCacheSize)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(entries); err == nil {
		if setErr := r.cache.Set(ctx, key, data, rankingCacheTTL).Err(); setErr != nil {
			r.logger.Warn("ranking cache write error", zap.Error(setErr))
		}
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *CachedRankingRepository) Increment(ctx context.Context, p domain.PeriodType, period, userKey string, durationMinutes int) error {
	if err := r.next.Increment(ctx, p, period, userKey, durationMinutes); err != nil {
		return err
	}
	r.invalidate(ctx, p, period)
	return nil
}

func (r *CachedRankingRepository) Put(ctx context.Context, entry *domain.RankingEntry) error {
	if err := r.next.Put(ctx, entry); err != nil {
		return err
	}
	r.invalidate(ctx, entry.Type, entry.Period)
	return nil
}
