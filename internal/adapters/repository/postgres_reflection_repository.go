package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/stillmind-app/checkin-engine/internal/core/domain"
)

type PostgresReflectionRepository struct {
	db *sqlx.DB
}

func NewPostgresReflectionRepository(db *sqlx.DB) *PostgresReflectionRepository {
	return &PostgresReflectionRepository{db: db}
}

func (r *PostgresReflectionRepository) Create(ctx context.Context, reflection *domain.ReflectionRecord) error {
	if reflection.ID == "" {
		reflection.ID = uuid.NewString()
	}

	query := `
		INSERT INTO reflections (
			id, user_key, text, occurred_at, created_at, updated_at
		) VALUES (
			:id, :user_key, :text, :occurred_at, :created_at, :updated_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, reflection)
	return err
}

func (r *PostgresReflectionRepository) ListByUser(ctx context.Context, userKey string) ([]*domain.ReflectionRecord, error) {
	reflections := []*domain.ReflectionRecord{}

	query := `
		SELECT * FROM reflections
		WHERE user_key = $1
		ORDER BY occurred_at DESC`

	if err := r.db.SelectContext(ctx, &reflections, query, userKey); err != nil {
		return nil, err
	}
	return reflections, nil
}

// GetMany returns only the reflections that still exist; missing IDs are
// skipped so callers can resolve dangling references without errors.
func (r *PostgresReflectionRepository) GetMany(ctx context.Context, ids []string) ([]*domain.ReflectionRecord, error) {
	if len(ids) == 0 {
		return []*domain.ReflectionRecord{}, nil
	}

	reflections := []*domain.ReflectionRecord{}

	query := `
		SELECT * FROM reflections
		WHERE id = ANY($1)
		ORDER BY occurred_at ASC`

	if err := r.db.SelectContext(ctx, &reflections, query, pq.Array(ids)); err != nil {
		return nil, err
	}
	return reflections, nil
}

func (r *PostgresReflectionRepository) DeleteByOccurredAt(ctx context.Context, userKey string, occurredAt int64) (string, error) {
	var deletedID string

	query := `
		DELETE FROM reflections
		WHERE user_key = $1 AND occurred_at = $2
		RETURNING id`

	err := r.db.GetContext(ctx, &deletedID, query, userKey, occurredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrReflectionNotFound
		}
		return "", err
	}
	return deletedID, nil
}
