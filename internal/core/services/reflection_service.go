package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stillmind-app/checkin-engine/internal/core/domain"
)

type ReflectionService struct {
	reflections domain.ReflectionRepository
	checkins    domain.CheckinRepository
	logger      *zap.Logger
	now         func() time.Time
}

func NewReflectionService(reflections domain.ReflectionRepository, checkins domain.CheckinRepository, logger *zap.Logger) *ReflectionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReflectionService{
		reflections: reflections,
		checkins:    checkins,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *ReflectionService) Create(ctx context.Context, userKey, text string) (*domain.ReflectionRecord, error) {
	reflection, err := domain.NewReflectionRecord(userKey, text, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.reflections.Create(ctx, reflection); err != nil {
		return nil, fmt.Errorf("reflection service: failed to create reflection: %w", err)
	}

	return reflection, nil
}

func (s *ReflectionService) List(ctx context.Context, userKey string) ([]*domain.ReflectionRecord, error) {
	return s.reflections.ListByUser(ctx, userKey)
}

// Delete removes a reflection by exact timestamp match. A miss surfaces as
// ErrReflectionNotFound. The ID is NOT scrubbed from any check-in's list; the
// read side tolerates dangling references instead.
func (s *ReflectionService) Delete(ctx context.Context, userKey string, occurredAt int64) (string, error) {
	return s.reflections.DeleteByOccurredAt(ctx, userKey, occurredAt)
}

// Link associates a reflection with a check-in. The ID is appended only when
// not already present, so linking twice is a no-op.
func (s *ReflectionService) Link(ctx context.Context, userKey, recordID, reflectionID string) (domain.ReflectionIDList, error) {
	record, err := s.checkins.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.UserKey != userKey {
		return nil, domain.ErrUnauthorized
	}

	ids, added := record.ReflectionIDs.Append(reflectionID)
	if !added {
		return ids, nil
	}

	if err := s.checkins.UpdateReflectionIDs(ctx, recordID, ids); err != nil {
		return nil, fmt.Errorf("reflection service: failed to link reflection: %w", err)
	}

	return ids, nil
}

// ListForCheckin resolves a check-in's reflection references. IDs whose
// reflection was deleted are skipped, not errors.
func (s *ReflectionService) ListForCheckin(ctx context.Context, userKey, recordID string) ([]*domain.ReflectionRecord, error) {
	record, err := s.checkins.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.UserKey != userKey {
		return nil, domain.ErrUnauthorized
	}

	if len(record.ReflectionIDs) == 0 {
		return []*domain.ReflectionRecord{}, nil
	}

	found, err := s.reflections.GetMany(ctx, record.ReflectionIDs)
	if err != nil {
		return nil, err
	}

	if len(found) < len(record.ReflectionIDs) {
		s.logger.Debug("check-in holds dangling reflection references",
			zap.String("record_id", recordID),
			zap.Int("referenced", len(record.ReflectionIDs)),
			zap.Int("resolved", len(found)))
	}

	return found, nil
}
