package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stillmind-app/checkin-engine/internal/core/domain"
)

type PostgresRankingRepository struct {
	db *sqlx.DB
}

func NewPostgresRankingRepository(db *sqlx.DB) *PostgresRankingRepository {
	return &PostgresRankingRepository{db: db}
}

// Increment is a single atomic statement, not a read-modify-write: concurrent
// check-ins can never lose each other's contribution.
func (r *PostgresRankingRepository) Increment(ctx context.Context, p domain.PeriodType, period, userKey string, durationMinutes int) error {
	query := `
		INSERT INTO ranking_entries (type, period, user_key, duration_minutes, count, updated_at)
		VALUES ($1, $2, $3, $4, 1, $5)
		ON CONFLICT (type, period, user_key) DO UPDATE SET
			duration_minutes = ranking_entries.duration_minutes + EXCLUDED.duration_minutes,
			count = ranking_entries.count + 1,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query, p, period, userKey, durationMinutes, time.Now().UTC())
	return err
}

// Top orders by duration descending with user_key as a stable tie-break, so
// positional rank assignment stays deterministic across reads.
func (r *PostgresRankingRepository) Top(ctx context.Context, p domain.PeriodType, period string, limit int) ([]*domain.RankingEntry, error) {
	entries := []*domain.RankingEntry{}

	query := `
		SELECT * FROM ranking_entries
		WHERE type = $1 AND period = $2
		ORDER BY duration_minutes DESC, user_key ASC
		LIMIT $3`

	if err := r.db.SelectContext(ctx, &entries, query, p, period, limit); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *PostgresRankingRepository) Put(ctx context.Context, entry *domain.RankingEntry) error {
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO ranking_entries (type, period, user_key, duration_minutes, count, updated_at)
		VALUES (:type, :period, :user_key, :duration_minutes, :count, :updated_at)
		ON CONFLICT (type, period, user_key) DO UPDATE SET
			duration_minutes = EXCLUDED.duration_minutes,
			count = EXCLUDED.count,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.NamedExecContext(ctx, query, entry)
	return err
}
