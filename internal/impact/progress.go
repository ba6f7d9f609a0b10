package impact

import (
	"math"
	"time"

	"github.com/trakapp/trak/internal/model"
)

const day = 24 * time.Hour

// ChallengeProgress returns completion in percent, clamped to [0, 100].
// A goal of zero or less is already complete.
func ChallengeProgress(goalValue, progress float64) float64 {
	if goalValue <= 0 {
		return 100
	}
	pct := progress / goalValue * 100
	return math.Max(0, math.Min(pct, 100))
}

// DaysRemaining returns the whole days left until end, never negative.
func DaysRemaining(end, now time.Time) int {
	left := end.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(float64(left) / float64(day)))
}

// FindUserRank returns the 1-based position of userID, or 0 when absent.
func FindUserRank(entries []model.LeaderboardEntry, userID string) int {
	for i, entry := range entries {
		if entry.UserID == userID {
			return i + 1
		}
	}
	return 0
}

// ChallengeContribution is how much a single log advances a challenge of goal g.
func ChallengeContribution(g model.ChallengeGoal, log *model.CommuteLog) float64 {
	if !log.CommuteType.Sustainable() {
		return 0
	}
	switch g {
	case model.ChallengeGoalDays:
		return float64(log.DaysLogged)
	case model.ChallengeGoalCO2:
		return float64(log.CO2Saved)
	case model.ChallengeGoalDistance:
		return log.DistanceKm * float64(log.DaysLogged)
	}
	return 0
}
