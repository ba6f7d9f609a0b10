package model

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord marks a decoded payload that breaks a model invariant.
var ErrInvalidRecord = errors.New("invalid record")

func (u *User) Validate() error {
	if u == nil {
		return fmt.Errorf("%w: null user", ErrInvalidRecord)
	}
	if u.ID == "" || u.Username == "" {
		return fmt.Errorf("%w: user without id or username", ErrInvalidRecord)
	}
	if u.Points < 0 {
		return fmt.Errorf("%w: negative points for user %s", ErrInvalidRecord, u.ID)
	}
	return nil
}

func (s *UserStats) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: null stats", ErrInvalidRecord)
	}
	if s.CO2Saved < 0 || s.Points < 0 || s.Streak < 0 || s.CompletedChallenges < 0 || s.TotalDaysLogged < 0 {
		return fmt.Errorf("%w: negative stat", ErrInvalidRecord)
	}
	return nil
}

func (c *Challenge) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: null challenge", ErrInvalidRecord)
	}
	if c.ID == "" {
		return fmt.Errorf("%w: challenge without id", ErrInvalidRecord)
	}
	if !c.GoalType.Valid() {
		return fmt.Errorf("%w: challenge %s has goal type %q", ErrInvalidRecord, c.ID, c.GoalType)
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("%w: challenge %s ends before it starts", ErrInvalidRecord, c.ID)
	}
	return nil
}

func (uc *UserChallenge) Validate() error {
	if uc == nil {
		return fmt.Errorf("%w: null user challenge", ErrInvalidRecord)
	}
	if uc.ID == "" || uc.ChallengeID == "" {
		return fmt.Errorf("%w: user challenge without id", ErrInvalidRecord)
	}
	if uc.Progress < 0 {
		return fmt.Errorf("%w: negative progress on %s", ErrInvalidRecord, uc.ID)
	}
	return uc.Challenge.Validate()
}

func (r *Reward) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: null reward", ErrInvalidRecord)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: reward without id", ErrInvalidRecord)
	}
	if r.CostPoints < 0 {
		return fmt.Errorf("%w: reward %s has negative cost", ErrInvalidRecord, r.ID)
	}
	return nil
}

func (r *UserRedemption) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: null redemption", ErrInvalidRecord)
	}
	if r.ID == "" || r.RewardID == "" {
		return fmt.Errorf("%w: redemption without id", ErrInvalidRecord)
	}
	if r.PointsSpent < 0 {
		return fmt.Errorf("%w: redemption %s has negative points", ErrInvalidRecord, r.ID)
	}
	return nil
}

// Validate checks that entries are ranked 1..n in non-increasing point order.
func (l *Leaderboard) Validate() error {
	if l == nil {
		return fmt.Errorf("%w: null leaderboard", ErrInvalidRecord)
	}
	for i, entry := range l.Entries {
		if entry.Rank != i+1 {
			return fmt.Errorf("%w: leaderboard entry %d has rank %d", ErrInvalidRecord, i, entry.Rank)
		}
		if i > 0 && entry.Points > l.Entries[i-1].Points {
			return fmt.Errorf("%w: leaderboard out of order at %d", ErrInvalidRecord, i)
		}
	}
	if l.UserRank < 0 {
		return fmt.Errorf("%w: negative user rank", ErrInvalidRecord)
	}
	return nil
}
