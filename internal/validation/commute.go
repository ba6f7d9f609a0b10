package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trakapp/trak/internal/impact"
	"github.com/trakapp/trak/internal/model"
)

// MaxDistanceKm caps a single one-way commute.
const MaxDistanceKm = 500

func ValidateCommuteInput(in model.CommuteLogInput) error {
	if !in.CommuteType.Valid() {
		return fmt.Errorf("unknown commute type %q", in.CommuteType)
	}

	if in.DaysLogged < 1 || in.DaysLogged > model.MaxDaysPerWeek {
		return fmt.Errorf("days logged must be between 1 and %d", model.MaxDaysPerWeek)
	}

	if in.DistanceKm < 0 || in.DistanceKm > MaxDistanceKm {
		return fmt.Errorf("distance must be between 0 and %d km", MaxDistanceKm)
	}

	if in.WeekStart.IsZero() {
		return errors.New("week start is required")
	}

	if !impact.IsWeekStart(in.WeekStart) {
		return errors.New("week start must be a Sunday at midnight")
	}

	return nil
}

func ValidateChallengeInput(in model.ChallengeInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("title is required")
	}

	if len(in.Title) > 200 {
		return errors.New("title is too long (max 200 characters)")
	}

	if !in.GoalType.Valid() {
		return fmt.Errorf("unknown goal type %q", in.GoalType)
	}

	if in.GoalValue <= 0 {
		return errors.New("goal value must be positive")
	}

	if in.RewardPoints < 0 {
		return errors.New("reward points cannot be negative")
	}

	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return errors.New("start and end date are required")
	}

	if !in.EndDate.After(in.StartDate) {
		return errors.New("end date must be after start date")
	}

	return nil
}

func ValidateRewardInput(in model.RewardInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("title is required")
	}

	if len(in.Title) > 200 {
		return errors.New("title is too long (max 200 characters)")
	}

	if in.CostPoints <= 0 {
		return errors.New("cost must be positive")
	}

	if in.QuantityLimit != nil && *in.QuantityLimit < 1 {
		return errors.New("quantity limit must be at least 1")
	}

	return nil
}
