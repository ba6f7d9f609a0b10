package impact

import (
	"time"
)

// maxZoneOffset is the largest UTC offset in use (UTC+14).
const maxZoneOffset = 14 * time.Hour

// WeekStart returns Sunday 00:00 of t's week in t's own location.
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

// IsWeekStart reports whether t is a Sunday midnight in its own location.
func IsWeekStart(t time.Time) bool {
	return WeekStart(t).Equal(t)
}

// WeekKey names the calendar Sunday a stored week_start belongs to.
// Stored week starts are client-local midnights normalized to UTC, so they
// land between Saturday 10:00 and Sunday 12:00 UTC; shifting by the widest
// offset puts every one of them on its Sunday (or the Monday after).
func WeekKey(weekStart time.Time) string {
	return WeekStart(weekStart.UTC().Add(maxZoneOffset)).Format(time.DateOnly)
}

// Streak counts consecutive qualifying weeks ending at the week of now.
// The current week may still be empty without breaking the streak.
func Streak(weeks []time.Time, now time.Time) int {
	if len(weeks) == 0 {
		return 0
	}

	seen := make(map[string]bool, len(weeks))
	for _, w := range weeks {
		seen[WeekKey(w)] = true
	}

	// A client east of UTC can already be in a week the server clock has
	// not reached; start there when it has a log.
	now = now.UTC()
	cursor := WeekStart(now)
	ahead := WeekStart(now.Add(maxZoneOffset))
	switch {
	case seen[ahead.Format(time.DateOnly)]:
		cursor = ahead
	case !seen[cursor.Format(time.DateOnly)]:
		cursor = cursor.AddDate(0, 0, -7)
	}

	streak := 0
	for seen[cursor.Format(time.DateOnly)] {
		streak++
		cursor = cursor.AddDate(0, 0, -7)
	}
	return streak
}
