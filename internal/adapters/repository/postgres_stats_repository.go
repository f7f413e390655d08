package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/stillmind-app/checkin-engine/internal/core/domain"
)

type PostgresStatsRepository struct {
	db *sqlx.DB
}

func NewPostgresStatsRepository(db *sqlx.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{db: db}
}

type scannable interface {
	Scan(dest ...interface{}) error
}

const statsColumns = `
	user_key, total_days, total_count, total_duration_minutes,
	current_streak, longest_streak, last_checkin_date, monthly_stats, updated_at`

func scanStatsRow(row scannable) (*domain.UserStats, error) {
	var s domain.UserStats
	var monthlyJSON []byte

	err := row.Scan(
		&s.UserKey, &s.TotalDays, &s.TotalCount, &s.TotalDurationMinutes,
		&s.CurrentStreak, &s.LongestStreak, &s.LastCheckinDate, &monthlyJSON, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.MonthlyStats = make(map[string]*domain.MonthlyBucket)
	if len(monthlyJSON) > 0 {
		if err := json.Unmarshal(monthlyJSON, &s.MonthlyStats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal monthly stats: %w", err)
		}
	}

	return &s, nil
}

func (r *PostgresStatsRepository) Get(ctx context.Context, userKey string) (*domain.UserStats, error) {
	query := `SELECT ` + statsColumns + ` FROM user_stats WHERE user_key = $1`

	row := r.db.QueryRowContext(ctx, query, userKey)

	stats, err := scanStatsRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStatsNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return stats, nil
}

func (r *PostgresStatsRepository) Save(ctx context.Context, stats *domain.UserStats) error {
	return upsertStats(ctx, r.db, stats)
}

// Apply serializes the read-modify-write per user: the stats row is locked
// with SELECT ... FOR UPDATE for the length of the transaction, so two
// concurrent check-ins by the same user cannot both observe stale totals.
func (r *PostgresStatsRepository) Apply(ctx context.Context, userKey string, apply func(*domain.UserStats) error) (*domain.UserStats, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `SELECT ` + statsColumns + ` FROM user_stats WHERE user_key = $1 FOR UPDATE`

	stats, err := scanStatsRow(tx.QueryRowContext(ctx, query, userKey))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("database scan error: %w", err)
		}
		stats = domain.NewUserStats(userKey)
	}

	if err := apply(stats); err != nil {
		return nil, err
	}

	if err := upsertStats(ctx, tx, stats); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stats, nil
}

func upsertStats(ctx context.Context, execer sqlx.ExtContext, stats *domain.UserStats) error {
	monthlyJSON, err := json.Marshal(stats.MonthlyStats)
	if err != nil {
		return fmt.Errorf("failed to marshal monthly stats: %w", err)
	}

	query := `
		INSERT INTO user_stats (
			user_key, total_days, total_count, total_duration_minutes,
			current_streak, longest_streak, last_checkin_date, monthly_stats, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_key) DO UPDATE SET
			total_days = EXCLUDED.total_days,
			total_count = EXCLUDED.total_count,
			total_duration_minutes = EXCLUDED.total_duration_minutes,
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_checkin_date = EXCLUDED.last_checkin_date,
			monthly_stats = EXCLUDED.monthly_stats,
			updated_at = EXCLUDED.updated_at`

	_, err = execer.ExecContext(ctx, query,
		stats.UserKey, stats.TotalDays, stats.TotalCount, stats.TotalDurationMinutes,
		stats.CurrentStreak, stats.LongestStreak, stats.LastCheckinDate, monthlyJSON, stats.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user stats: %w", err)
	}
	return nil
}
