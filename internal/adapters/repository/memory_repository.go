package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/stillmind-app/checkin-engine/internal/core/domain"
)

// In-memory adapters backing service and worker tests. The stats adapter
// serializes Apply with its mutex, mirroring the per-user locking the
// Postgres adapter gets from FOR UPDATE.

type InMemoryCheckinRepository struct {
	store map[string]*domain.CheckinRecord

	mu sync.RWMutex
}

func NewInMemoryCheckinRepository() *InMemoryCheckinRepository {
	return &InMemoryCheckinRepository{
		store: make(map[string]*domain.CheckinRecord),
	}
}

func (r *InMemoryCheckinRepository) Create(ctx context.Context, record *domain.CheckinRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[record.ID] = record
	return nil
}

func (r *InMemoryCheckinRepository) GetByID(ctx context.Context, id string) (*domain.CheckinRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.store[id]
	if !ok {
		return nil, domain.ErrCheckinNotFound
	}
	return record, nil
}

func (r *InMemoryCheckinRepository) ListByUser(ctx context.Context, userKey string) ([]*domain.CheckinRecord, error) {
	return r.list(func(rec *domain.CheckinRecord) bool {
		return rec.UserKey == userKey
	}), nil
}

func (r *InMemoryCheckinRepository) ListByUserAndDate(ctx context.Context, userKey, date string) ([]*domain.CheckinRecord, error) {
	return r.list(func(rec *domain.CheckinRecord) bool {
		return rec.UserKey == userKey && rec.Date == date
	}), nil
}

func (r *InMemoryCheckinRepository) ListByUserAndMonth(ctx context.Context, userKey, month string) ([]*domain.CheckinRecord, error) {
	return r.list(func(rec *domain.CheckinRecord) bool {
		return rec.UserKey == userKey && domain.MonthOf(rec.Date) == month
	}), nil
}

func (r *InMemoryCheckinRepository) list(match func(*domain.CheckinRecord) bool) []*domain.CheckinRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := []*domain.CheckinRecord{}
	for _, rec := range r.store {
		if match(rec) {
			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].OccurredAt > records[j].OccurredAt
	})
	return records
}

func (r *InMemoryCheckinRepository) UpdateReflectionIDs(ctx context.Context, id string, ids domain.ReflectionIDList) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.store[id]
	if !ok {
		return domain.ErrCheckinNotFound
	}
	record.ReflectionIDs = ids
	return nil
}

type InMemoryReflectionRepository struct {
	store map[string]*domain.ReflectionRecord

	mu sync.RWMutex
}

func NewInMemoryReflectionRepository() *InMemoryReflectionRepository {
	return &InMemoryReflectionRepository{
		store: make(map[string]*domain.ReflectionRecord),
	}
}

func (r *InMemoryReflectionRepository) Create(ctx context.Context, reflection *domain.ReflectionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[reflection.ID] = reflection
	return nil
}

func (r *InMemoryReflectionRepository) ListByUser(ctx context.Context, userKey string) ([]*domain.ReflectionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reflections := []*domain.ReflectionRecord{}
	for _, ref := range r.store {
		if ref.UserKey == userKey {
			reflections = append(reflections, ref)
		}
	}

	sort.Slice(reflections, func(i, j int) bool {
		return reflections[i].OccurredAt > reflections[j].OccurredAt
	})
	return reflections, nil
}

func (r *InMemoryReflectionRepository) GetMany(ctx context.Context, ids []string) ([]*domain.ReflectionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reflections := []*domain.ReflectionRecord{}
	for _, id := range ids {
		if ref, ok := r.store[id]; ok {
			reflections = append(reflections, ref)
		}
	}
	return reflections, nil
}

func (r *InMemoryReflectionRepository) DeleteByOccurredAt(ctx context.Context, userKey string, occurredAt int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, ref := range r.store {
		if ref.UserKey == userKey && ref.OccurredAt == occurredAt {
			delete(r.store, id)
			return id, nil
		}
	}
	return "", domain.ErrReflectionNotFound
}

type InMemoryStatsRepository struct {
	store map[string]*domain.UserStats

	mu sync.Mutex
}

func NewInMemoryStatsRepository() *InMemoryStatsRepository {
	return &InMemoryStatsRepository{
		store: make(map[string]*domain.UserStats),
	}
}

func (r *InMemoryStatsRepository) Get(ctx context.Context, userKey string) (*domain.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.store[userKey]
	if !ok {
		return nil, domain.ErrStatsNotFound
	}
	return cloneStats(stats), nil
}

func (r *InMemoryStatsRepository) Save(ctx context.Context, stats *domain.UserStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[stats.UserKey] = cloneStats(stats)
	return nil
}

func (r *InMemoryStatsRepository) Apply(ctx context.Context, userKey string, apply func(*domain.UserStats) error) (*domain.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.store[userKey]
	if !ok {
		stats = domain.NewUserStats(userKey)
	}

	working := cloneStats(stats)
	if err := apply(working); err != nil {
		return nil, err
	}

	r.store[userKey] = working
	return cloneStats(working), nil
}

func cloneStats(stats *domain.UserStats) *domain.UserStats {
	data, _ := json.Marshal(stats)
	var clone domain.UserStats
	_ = json.Unmarshal(data, &clone)
	if clone.MonthlyStats == nil {
		clone.MonthlyStats = make(map[string]*domain.MonthlyBucket)
	}
	return &clone
}

type InMemoryRankingRepository struct {
	store map[string]*domain.RankingEntry

	mu sync.RWMutex
}

func NewInMemoryRankingRepository() *InMemoryRankingRepository {
	return &InMemoryRankingRepository{
		store: make(map[string]*domain.RankingEntry),
	}
}

func rankingKey(p domain.PeriodType, period, userKey string) string {
	return string(p) + "|" + period + "|" + userKey
}

func (r *InMemoryRankingRepository) Increment(ctx context.Context, p domain.PeriodType, period, userKey string, durationMinutes int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := rankingKey(p, period, userKey)
	entry, ok := r.store[key]
	if !ok {
		entry = &domain.RankingEntry{
			Type:    p,
			Period:  period,
			UserKey: userKey,
		}
		r.store[key] = entry
	}
	entry.DurationMinutes += durationMinutes
	entry.Count++
	entry.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryRankingRepository) Top(ctx context.Context, p domain.PeriodType, period string, limit int) ([]*domain.RankingEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := []*domain.RankingEntry{}
	for _, e := range r.store {
		if e.Type == p && e.Period == period {
			entries = append(entries, e)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DurationMinutes != entries[j].DurationMinutes {
			return entries[i].DurationMinutes > entries[j].DurationMinutes
		}
		return entries[i].UserKey < entries[j].UserKey
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *InMemoryRankingRepository) Put(ctx context.Context, entry *domain.RankingEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}
	r.store[rankingKey(entry.Type, entry.Period, entry.UserKey)] = entry
	return nil
}
