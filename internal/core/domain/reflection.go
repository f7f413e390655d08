package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrReflectionTextEmpty   = errors.New("reflection text cannot be empty")
	ErrReflectionTextTooLong = errors.New("reflection text is too long (max 2000 chars)")
)

const MaxReflectionLen = 2000

// ReflectionRecord is a free-text note. Check-ins hold a weak reference to it
// by ID; the reflection never points back, and deleting one does not touch the
// ID lists that mention it.
type ReflectionRecord struct {
	ID      string `json:"id" db:"id"`
	UserKey string `json:"user_key" db:"user_key"`
	Text    string `json:"text" db:"text"`

	// OccurredAt doubles as the identity used by exact-match deletion.
	OccurredAt int64 `json:"occurred_at" db:"occurred_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func NewReflectionRecord(userKey, text string, now time.Time) (*ReflectionRecord, error) {
	if userKey == "" {
		return nil, ErrCheckinInvalidUserKey
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrReflectionTextEmpty
	}
	if len(trimmed) > MaxReflectionLen {
		return nil, ErrReflectionTextTooLong
	}

	utc := now.UTC()

	return &ReflectionRecord{
		ID:         uuid.NewString(),
		UserKey:    userKey,
		Text:       trimmed,
		OccurredAt: now.UnixMilli(),
		CreatedAt:  utc,
		UpdatedAt:  utc,
	}, nil
}
