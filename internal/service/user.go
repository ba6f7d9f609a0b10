package service

import (
	"fmt"
	"time"

	"github.com/trakapp/trak/internal/impact"
	"github.com/trakapp/trak/internal/model"
	"github.com/trakapp/trak/internal/repository"
	"github.com/trakapp/trak/internal/validation"
)

// UpdateInput is the body of PATCH /api/user. Absent fields stay untouched.
type UpdateInput struct {
	IsNewUser           *bool   `json:"is_new_user,omitempty"`
	NeedsPasswordChange *bool   `json:"needs_password_change,omitempty"`
	Password            *string `json:"password,omitempty"`
}

type UserService struct {
	userRepository      repository.UserRepository
	commuteRepository   repository.CommuteRepository
	challengeRepository repository.ChallengeRepository
	authService         *AuthService
}

func NewUserService(
	userRepository repository.UserRepository,
	commuteRepository repository.CommuteRepository,
	challengeRepository repository.ChallengeRepository,
	authService *AuthService,
) *UserService {
	return &UserService{
		userRepository:      userRepository,
		commuteRepository:   commuteRepository,
		challengeRepository: challengeRepository,
		authService:         authService,
	}
}

func (s *UserService) ByID(id string) (*model.User, error) {
	return s.userRepository.ByID(id)
}

// UpdateFlags hashes a provided password and hands the sparse update to the store.
func (s *UserService) UpdateFlags(id string, in UpdateInput) (*model.User, error) {
	update := model.UserUpdate{
		IsNewUser:           in.IsNewUser,
		NeedsPasswordChange: in.NeedsPasswordChange,
	}

	if in.Password != nil {
		err := validation.ValidatePassword(*in.Password)
		if err != nil {
			return nil, invalid(err)
		}

		hash, err := s.authService.HashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		update.PasswordHash = &hash
	}

	user, err := s.userRepository.Update(id, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// Stats derives the dashboard figures from the user's full history.
func (s *UserService) Stats(userID string, now time.Time) (*model.UserStats, error) {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	logs, err := s.commuteRepository.History(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get commute history: %w", err)
	}

	completed, err := s.challengeRepository.CountCompleted(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed challenges: %w", err)
	}

	stats := &model.UserStats{
		Points:              user.Points,
		CompletedChallenges: completed,
	}

	var weeks []time.Time
	for _, log := range logs {
		stats.CO2Saved += log.CO2Saved
		stats.TotalDaysLogged += log.DaysLogged
		if log.CommuteType.Sustainable() && log.DaysLogged > 0 {
			weeks = append(weeks, log.WeekStart)
		}
	}
	stats.Streak = impact.Streak(weeks, now.UTC())

	return stats, nil
}
