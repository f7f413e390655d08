package workers

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/stillmind-app/checkin-engine/internal/core/domain"
)

type CheckinRepository interface {
	ListByUser(ctx context.Context, userKey string) ([]*domain.CheckinRecord, error)
}

type StatsRepository interface {
	Save(ctx context.Context, stats *domain.UserStats) error
}

type RankingRepository interface {
	Put(ctx context.Context, entry *domain.RankingEntry) error
}

type RepairJob struct {
	UserKey string
}

// RepairWorker rebuilds a user's aggregates from the check-in log. The write
// pipeline enqueues a user whenever a stats or ranking update fails after the
// record itself was durably written; the replay here makes the aggregates
// converge back to the record history.
type RepairWorker struct {
	checkins CheckinRepository
	stats    StatsRepository
	rankings RankingRepository
	jobs     chan RepairJob
	logger   *zap.Logger
}

func NewRepairWorker(checkins CheckinRepository, stats StatsRepository, rankings RankingRepository, logger *zap.Logger) *RepairWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepairWorker{
		checkins: checkins,
		stats:    stats,
		rankings: rankings,
		jobs:     make(chan RepairJob, 100),
		logger:   logger,
	}
}

func (w *RepairWorker) Start(ctx context.Context) {
	go func() {
		w.logger.Info("repair worker started")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				w.logger.Info("repair worker shutting down")
				return
			}
		}
	}()
}

func (w *RepairWorker) Enqueue(userKey string) {
	select {
	case w.jobs <- RepairJob{UserKey: userKey}:
	default:
		w.logger.Warn("repair queue full, dropping job", zap.String("user_key", userKey))
	}
}

func (w *RepairWorker) processJob(ctx context.Context, job RepairJob) {
	if err := w.Repair(ctx, job.UserKey); err != nil {
		w.logger.Error("repair failed", zap.String("user_key", job.UserKey), zap.Error(err))
	}
}

// Repair replays the user's full history and overwrites the stats document
// and every ranking row the history contributes to.
func (w *RepairWorker) Repair(ctx context.Context, userKey string) error {
	records, err := w.checkins.ListByUser(ctx, userKey)
	if err != nil {
		return err
	}

	stats := RebuildStats(userKey, records)
	if err := w.stats.Save(ctx, stats); err != nil {
		return err
	}

	for _, entry := range RebuildRankings(userKey, records) {
		if err := w.rankings.Put(ctx, entry); err != nil {
			return err
		}
	}

	w.logger.Info("aggregates rebuilt from record history",
		zap.String("user_key", userKey),
		zap.Int("records", len(records)))
	return nil
}

// RebuildStats replays the log in occurrence order through the same fold the
// write pipeline uses, so a rebuilt document matches an incrementally
// maintained one exactly.
func RebuildStats(userKey string, records []*domain.CheckinRecord) *domain.UserStats {
	ordered := sortByOccurrence(records)

	stats := domain.NewUserStats(userKey)
	for _, r := range ordered {
		stats.ApplyCheckin(r.Date, r.DurationMinutes)
	}
	return stats
}

// RebuildRankings recomputes the user's contribution to every (type, period)
// bucket present in the history.
func RebuildRankings(userKey string, records []*domain.CheckinRecord) []*domain.RankingEntry {
	ordered := sortByOccurrence(records)

	byKey := make(map[string]*domain.RankingEntry)
	var result []*domain.RankingEntry

	for _, r := range ordered {
		for _, p := range domain.AllPeriodTypes {
			period := domain.PeriodKey(p, r.Date)
			key := string(p) + "|" + period

			entry, ok := byKey[key]
			if !ok {
				entry = &domain.RankingEntry{
					Type:    p,
					Period:  period,
					UserKey: userKey,
				}
				byKey[key] = entry
				result = append(result, entry)
			}
			entry.DurationMinutes += r.DurationMinutes
			entry.Count++
		}
	}

	return result
}

func sortByOccurrence(records []*domain.CheckinRecord) []*domain.CheckinRecord {
	ordered := make([]*domain.CheckinRecord, len(records))
	copy(ordered, records)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].OccurredAt < ordered[j].OccurredAt
	})
	return ordered
}
