package domain

import "time"

// PeriodType selects one of the three parallel leaderboard projections.
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodMonthly PeriodType = "monthly"
	PeriodTotal   PeriodType = "total"

	// PeriodAll is the sentinel period of the all-time projection.
	PeriodAll = "all"
)

var AllPeriodTypes = []PeriodType{PeriodDaily, PeriodMonthly, PeriodTotal}

func (p PeriodType) Valid() bool {
	switch p {
	case PeriodDaily, PeriodMonthly, PeriodTotal:
		return true
	}
	return false
}

// PeriodKey derives the bucket key a check-in on the given date contributes
// to: the date itself, its month, or the all-time sentinel.
func PeriodKey(p PeriodType, date string) string {
	switch p {
	case PeriodDaily:
		return date
	case PeriodMonthly:
		return MonthOf(date)
	default:
		return PeriodAll
	}
}

// RankingEntry is the unique row per (type, period, user). Rows only ever
// accumulate; cross-user ordering happens at read time.
type RankingEntry struct {
	Type            PeriodType `json:"type" db:"type"`
	Period          string     `json:"period" db:"period"`
	UserKey         string     `json:"user_key" db:"user_key"`
	DurationMinutes int        `json:"duration_minutes" db:"duration_minutes"`
	Count           int        `json:"count" db:"count"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// RankedEntry is the read model returned by leaderboard queries. Rank is
// positional: ties on duration still receive distinct consecutive ranks.
type RankedEntry struct {
	UserKey         string `json:"user_key"`
	DurationMinutes int    `json:"duration_minutes"`
	Count           int    `json:"count"`
	Rank            int    `json:"rank"`
}
