package flow

import (
	"time"

	"lingodrill/internal/types"
)

// ComputeStreak returns the streak value the profile should carry if an
// exercise is issued now. Dates are compared as UTC calendar days: no prior
// exercise or a gap over one day resets to 1, yesterday extends by 1, today
// leaves the streak unchanged. The caller commits the value only when an
// exercise is actually issued.
func ComputeStreak(p types.Profile, now time.Time) int {
	if p.LastExerciseAt == nil {
		return 1
	}
	today := now.UTC().Truncate(24 * time.Hour)
	last := p.LastExerciseAt.UTC().Truncate(24 * time.Hour)
	switch {
	case last.Equal(today):
		return p.CurrentStreakDays
	case last.Equal(today.AddDate(0, 0, -1)):
		return p.CurrentStreakDays + 1
	default:
		return 1
	}
}
