package domain

import (
	"context"
	"errors"
)

var (
	ErrCheckinNotFound    = errors.New("check-in record not found")
	ErrReflectionNotFound = errors.New("reflection not found")
	ErrStatsNotFound      = errors.New("user stats not found")
	ErrUnauthorized       = errors.New("unauthorized access to resource")
)

type CheckinRepository interface {
	// Create appends a new record. Duplicate same-day sessions are valid
	// and must never be rejected.
	Create(ctx context.Context, record *CheckinRecord) error

	GetByID(ctx context.Context, id string) (*CheckinRecord, error)

	// ListByUser returns the user's full history, newest first.
	ListByUser(ctx context.Context, userKey string) ([]*CheckinRecord, error)

	ListByUserAndDate(ctx context.Context, userKey, date string) ([]*CheckinRecord, error)

	// ListByUserAndMonth matches records whose date falls inside the
	// YYYY-MM month.
	ListByUserAndMonth(ctx context.Context, userKey, month string) ([]*CheckinRecord, error)

	// UpdateReflectionIDs is the only mutation a record ever sees.
	UpdateReflectionIDs(ctx context.Context, id string, ids ReflectionIDList) error
}

type ReflectionRepository interface {
	Create(ctx context.Context, reflection *ReflectionRecord) error

	ListByUser(ctx context.Context, userKey string) ([]*ReflectionRecord, error)

	// GetMany returns the reflections that exist among ids. Missing IDs are
	// silently skipped: check-ins may hold dangling references.
	GetMany(ctx context.Context, ids []string) ([]*ReflectionRecord, error)

	// DeleteByOccurredAt removes the reflection matching the exact timestamp
	// and returns its ID, or ErrReflectionNotFound.
	DeleteByOccurredAt(ctx context.Context, userKey string, occurredAt int64) (string, error)
}

type StatsRepository interface {
	// Get returns ErrStatsNotFound for users without a stats document yet.
	Get(ctx context.Context, userKey string) (*UserStats, error)

	// Save upserts the full document (used by the repair path).
	Save(ctx context.Context, stats *UserStats) error

	// Apply runs a read-modify-write serialized per user: implementations
	// must guarantee two concurrent Apply calls for the same key cannot both
	// observe the same prior state. A missing document is seeded zero-valued
	// before apply runs.
	Apply(ctx context.Context, userKey string, apply func(*UserStats) error) (*UserStats, error)
}

type RankingRepository interface {
	// Increment atomically adds one check-in's contribution to the unique
	// (type, period, user) row, creating it when absent.
	Increment(ctx context.Context, p PeriodType, period, userKey string, durationMinutes int) error

	// Top returns rows ordered by duration descending. Ordering among equal
	// durations must be stable across calls.
	Top(ctx context.Context, p PeriodType, period string, limit int) ([]*RankingEntry, error)

	// Put overwrites a row with recomputed values (repair path).
	Put(ctx context.Context, entry *RankingEntry) error
}
