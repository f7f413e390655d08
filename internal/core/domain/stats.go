package domain

import "time"

// MonthlyBucket is one month's rollup inside UserStats. Days holds the
// distinct check-in dates of the month; Count and TotalDuration include
// repeat check-ins on the same day.
type MonthlyBucket struct {
	Days          []string `json:"days"`
	Count         int      `json:"count"`
	TotalDuration int      `json:"total_duration"`
}

// UserStats is the per-user aggregation document. It is a materialized view
// over the check-in log, rebuildable by replay, not a source of truth.
type UserStats struct {
	UserKey              string                    `json:"user_key" db:"user_key"`
	TotalDays            int                       `json:"total_days" db:"total_days"`
	TotalCount           int                       `json:"total_count" db:"total_count"`
	TotalDurationMinutes int                       `json:"total_duration_minutes" db:"total_duration_minutes"`
	CurrentStreak        int                       `json:"current_streak" db:"current_streak"`
	LongestStreak        int                       `json:"longest_streak" db:"longest_streak"`
	LastCheckinDate      string                    `json:"last_checkin_date" db:"last_checkin_date"`
	MonthlyStats         map[string]*MonthlyBucket `json:"monthly_stats"`
	UpdatedAt            time.Time                 `json:"updated_at" db:"updated_at"`
}

// NewUserStats returns the zero-valued seed used on a user's first check-in.
func NewUserStats(userKey string) *UserStats {
	return &UserStats{
		UserKey:      userKey,
		MonthlyStats: make(map[string]*MonthlyBucket),
	}
}

// MonthOf extracts the YYYY-MM key from a YYYY-MM-DD date string.
func MonthOf(date string) string {
	if len(date) < len(MonthLayout) {
		return date
	}
	return date[:len(MonthLayout)]
}

func daysBetween(from, to string) int {
	a, errA := time.Parse(DateLayout, from)
	b, errB := time.Parse(DateLayout, to)
	if errA != nil || errB != nil {
		return 0
	}
	return int(b.Sub(a).Hours() / 24)
}

// ApplyCheckin folds one check-in into the document.
//
// Totals grow on every call. Day-scoped fields (TotalDays, streaks, the
// month's Days list) move only when the date differs from the last recorded
// one, so any number of same-day check-ins counts as a single day.
func (s *UserStats) ApplyCheckin(date string, durationMinutes int) {
	if s.MonthlyStats == nil {
		s.MonthlyStats = make(map[string]*MonthlyBucket)
	}

	isNewDay := s.LastCheckinDate != date

	s.TotalCount++
	s.TotalDurationMinutes += durationMinutes

	month := MonthOf(date)

	if isNewDay {
		prevDate := s.LastCheckinDate
		s.TotalDays++
		s.LastCheckinDate = date

		if prevDate == "" {
			// First-ever check-in seeds the streak.
			s.CurrentStreak = 1
			if s.LongestStreak < 1 {
				s.LongestStreak = 1
			}
		} else if gap := daysBetween(prevDate, date); gap == 1 {
			s.CurrentStreak++
			if s.CurrentStreak > s.LongestStreak {
				s.LongestStreak = s.CurrentStreak
			}
		} else {
			// Gap: streak restarts. LongestStreak keeps the prior maximum
			// until it is actually surpassed.
			s.CurrentStreak = 1
		}

		bucket, ok := s.MonthlyStats[month]
		if !ok {
			s.MonthlyStats[month] = &MonthlyBucket{
				Days:          []string{date},
				Count:         1,
				TotalDuration: durationMinutes,
			}
		} else {
			if !containsDay(bucket.Days, date) {
				bucket.Days = append(bucket.Days, date)
			}
			bucket.Count++
			bucket.TotalDuration += durationMinutes
		}
	} else {
		// Same-day repeat: the day is already counted, only volumes grow.
		bucket, ok := s.MonthlyStats[month]
		if !ok {
			bucket = &MonthlyBucket{Days: []string{date}}
			s.MonthlyStats[month] = bucket
		}
		bucket.Count++
		bucket.TotalDuration += durationMinutes
	}

	s.UpdatedAt = time.Now().UTC()
}

func containsDay(days []string, date string) bool {
	for _, d := range days {
		if d == date {
			return true
		}
	}
	return false
}
