package model

import (
	"time"
)

type ChallengeGoal string

const (
	ChallengeGoalDays     ChallengeGoal = "days"
	ChallengeGoalCO2      ChallengeGoal = "co2"
	ChallengeGoalDistance ChallengeGoal = "distance"
)

func (g ChallengeGoal) Valid() bool {
	switch g {
	case ChallengeGoalDays, ChallengeGoalCO2, ChallengeGoalDistance:
		return true
	}
	return false
}

type Challenge struct {
	ID              string        `db:"id" json:"id"`
	Title           string        `db:"title" json:"title"`
	Description     string        `db:"description" json:"description"`
	DescriptionHTML string        `db:"-" json:"description_html"`
	GoalType        ChallengeGoal `db:"goal_type" json:"goal_type"`
	GoalValue       float64       `db:"goal_value" json:"goal_value"`
	RewardPoints    int           `db:"reward_points" json:"reward_points"`
	StartDate       time.Time     `db:"start_date" json:"start_date"`
	EndDate         time.Time     `db:"end_date" json:"end_date"`
	CreatedBy       string        `db:"created_by" json:"created_by"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	Participants    int           `db:"participants" json:"participants"`
	Joined          bool          `db:"joined" json:"joined"`
}

// IsActive reports whether now falls inside the challenge window.
func (c *Challenge) IsActive(now time.Time) bool {
	return !now.Before(c.StartDate) && now.Before(c.EndDate)
}

type ChallengeInput struct {
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	GoalType     ChallengeGoal `json:"goal_type"`
	GoalValue    float64       `json:"goal_value"`
	RewardPoints int           `json:"reward_points"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
}

type UserChallenge struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	ChallengeID string     `db:"challenge_id" json:"challenge_id"`
	Progress    float64    `db:"progress" json:"progress"`
	Completed   bool       `db:"completed" json:"completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	JoinedAt    time.Time  `db:"joined_at" json:"joined_at"`

	Challenge Challenge `db:"challenge" json:"challenge"`
}
