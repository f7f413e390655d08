package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCheckinInvalidUserKey = errors.New("invalid user key")
	ErrInvalidDuration       = errors.New("duration cannot be negative")
	ErrInvalidRating         = errors.New("rating must be between 0 and 5")
	ErrInvalidDate           = errors.New("invalid date (expected YYYY-MM-DD)")
	ErrInvalidMonth          = errors.New("invalid month (expected YYYY-MM)")
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"

	MinRating = 0
	MaxRating = 5
)

// ReflectionIDList is an ordered, duplicate-free list of reflection identifiers.
// Old records stored a single ID as a bare JSON string; new records store an
// array. Both shapes decode into a list, so nothing past this type ever
// branches on the legacy form.
type ReflectionIDList []string

func (l *ReflectionIDList) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err == nil {
		*l = ids
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*l = nil
		} else {
			*l = ReflectionIDList{single}
		}
		return nil
	}

	return fmt.Errorf("reflection ids: expected string or array, got %s", data)
}

// Value stores the list as JSONB. Always writes the modern array shape.
func (l ReflectionIDList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *ReflectionIDList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return l.UnmarshalJSON(v)
	case string:
		return l.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("reflection ids: cannot scan %T", src)
	}
}

// Append returns the list with id added, or unchanged when already present.
func (l ReflectionIDList) Append(id string) (ReflectionIDList, bool) {
	for _, existing := range l {
		if existing == id {
			return l, false
		}
	}
	return append(l, id), true
}

// CheckinRecord is one meditation session. It is the durable source of truth:
// stats and ranking documents are derivable from the full record history.
type CheckinRecord struct {
	ID      string `json:"id" db:"id"`
	UserKey string `json:"user_key" db:"user_key"`

	// Date is the calendar day in the caller's local timezone, fixed at
	// creation and never recomputed. It is the aggregation key for streaks
	// and daily leaderboards.
	Date            string           `json:"date" db:"date"`
	OccurredAt      int64            `json:"occurred_at" db:"occurred_at"`
	DurationMinutes int              `json:"duration_minutes" db:"duration_minutes"`
	Rating          int              `json:"rating" db:"rating"`
	ReflectionIDs   ReflectionIDList `json:"reflection_ids" db:"reflection_ids"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewCheckinRecord derives Date from now's calendar day in now's location,
// matching the user-visible "today" rather than UTC.
func NewCheckinRecord(userKey string, durationMinutes, rating int, reflectionIDs []string, now time.Time) (*CheckinRecord, error) {
	if userKey == "" {
		return nil, ErrCheckinInvalidUserKey
	}
	if durationMinutes < 0 {
		return nil, ErrInvalidDuration
	}
	if rating < MinRating || rating > MaxRating {
		return nil, ErrInvalidRating
	}

	var ids ReflectionIDList
	for _, id := range reflectionIDs {
		ids, _ = ids.Append(id)
	}

	return &CheckinRecord{
		ID:              uuid.NewString(),
		UserKey:         userKey,
		Date:            now.Format(DateLayout),
		OccurredAt:      now.UnixMilli(),
		DurationMinutes: durationMinutes,
		Rating:          rating,
		ReflectionIDs:   ids,
		CreatedAt:       now.UTC(),
	}, nil
}
