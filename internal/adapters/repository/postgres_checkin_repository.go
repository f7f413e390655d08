package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/stillmind-app/checkin-engine/internal/core/domain"
)

type PostgresCheckinRepository struct {
	db *sqlx.DB
}

func NewPostgresCheckinRepository(db *sqlx.DB) *PostgresCheckinRepository {
	return &PostgresCheckinRepository{db: db}
}

func (r *PostgresCheckinRepository) Create(ctx context.Context, record *domain.CheckinRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	query := `
		INSERT INTO checkins (
			id, user_key, date, occurred_at,
			duration_minutes, rating, reflection_ids, created_at
		) VALUES (
			:id, :user_key, :date, :occurred_at,
			:duration_minutes, :rating, :reflection_ids, :created_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("duplicate check-in id %s", record.ID)
		}
		return err
	}
	return nil
}

func (r *PostgresCheckinRepository) GetByID(ctx context.Context, id string) (*domain.CheckinRecord, error) {
	var record domain.CheckinRecord
	query := `SELECT * FROM checkins WHERE id = $1`

	err := r.db.GetContext(ctx, &record, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCheckinNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *PostgresCheckinRepository) ListByUser(ctx context.Context, userKey string) ([]*domain.CheckinRecord, error) {
	records := []*domain.CheckinRecord{}

	query := `
		SELECT * FROM checkins
		WHERE user_key = $1
		ORDER BY occurred_at DESC`

	if err := r.db.SelectContext(ctx, &records, query, userKey); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *PostgresCheckinRepository) ListByUserAndDate(ctx context.Context, userKey, date string) ([]*domain.CheckinRecord, error) {
	records := []*domain.CheckinRecord{}

	query := `
		SELECT * FROM checkins
		WHERE user_key = $1 AND date = $2
		ORDER BY occurred_at DESC`

	if err := r.db.SelectContext(ctx, &records, query, userKey, date); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *PostgresCheckinRepository) ListByUserAndMonth(ctx context.Context, userKey, month string) ([]*domain.CheckinRecord, error) {
	records := []*domain.CheckinRecord{}

	query := `
		SELECT * FROM checkins
		WHERE user_key = $1 AND date LIKE $2 || '-%'
		ORDER BY occurred_at ASC`

	if err := r.db.SelectContext(ctx, &records, query, userKey, month); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *PostgresCheckinRepository) UpdateReflectionIDs(ctx context.Context, id string, ids domain.ReflectionIDList) error {
	query := `UPDATE checkins SET reflection_ids = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, ids, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrCheckinNotFound
	}
	return nil
}
