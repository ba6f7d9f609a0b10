package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/trakapp/trak/internal/markdown"
	"github.com/trakapp/trak/internal/metrics"
	"github.com/trakapp/trak/internal/model"
	"github.com/trakapp/trak/internal/repository"
	"github.com/trakapp/trak/internal/validation"
)

var ErrChallengeEnded = errors.New("challenge has already ended")

type ChallengeService struct {
	challengeRepository repository.ChallengeRepository
	parser              *markdown.Parser
	metrics             *metrics.Metrics
}

func NewChallengeService(challengeRepository repository.ChallengeRepository, parser *markdown.Parser, metrics *metrics.Metrics) *ChallengeService {
	return &ChallengeService{
		challengeRepository: challengeRepository,
		parser:              parser,
		metrics:             metrics,
	}
}

// Create is restricted to admins.
func (s *ChallengeService) Create(actor *model.User, in model.ChallengeInput, now time.Time) (*model.Challenge, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	in.Title = strings.TrimSpace(in.Title)
	err := validation.ValidateChallengeInput(in)
	if err != nil {
		return nil, invalid(err)
	}

	challenge := &model.Challenge{
		ID:           uuid.New().String(),
		Title:        in.Title,
		Description:  in.Description,
		GoalType:     in.GoalType,
		GoalValue:    in.GoalValue,
		RewardPoints: in.RewardPoints,
		StartDate:    in.StartDate.UTC(),
		EndDate:      in.EndDate.UTC(),
		CreatedBy:    actor.ID,
		CreatedAt:    now.UTC(),
	}

	err = s.challengeRepository.Create(challenge)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	s.render(challenge)
	slog.Info("challenge created", "challenge_id", challenge.ID, "user_id", actor.ID)
	return challenge, nil
}

func (s *ChallengeService) List(userID string) ([]*model.Challenge, error) {
	challenges, err := s.challengeRepository.Challenges(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}

	for _, c := range challenges {
		s.render(c)
	}
	return challenges, nil
}

func (s *ChallengeService) Join(userID, challengeID string, now time.Time) (*model.UserChallenge, error) {
	challenge, err := s.challengeRepository.ByID(challengeID)
	if err != nil {
		return nil, err
	}

	if !now.Before(challenge.EndDate) {
		return nil, ErrChallengeEnded
	}

	uc, err := s.challengeRepository.Join(userID, challengeID)
	if err != nil {
		return nil, err
	}

	s.render(challenge)
	uc.Challenge = *challenge
	uc.Challenge.Joined = true
	uc.Challenge.Participants++

	s.metrics.ChallengeJoined()
	slog.Info("challenge joined", "challenge_id", challengeID, "user_id", userID)
	return uc, nil
}

func (s *ChallengeService) UserChallenges(userID string) ([]*model.UserChallenge, error) {
	ucs, err := s.challengeRepository.UserChallenges(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user challenges: %w", err)
	}

	for _, uc := range ucs {
		uc.Challenge.Joined = true
		s.render(&uc.Challenge)
	}
	return ucs, nil
}

func (s *ChallengeService) render(c *model.Challenge) {
	if c.Description == "" {
		return
	}

	html, err := s.parser.HTML(c.Description)
	if err != nil {
		slog.Warn("failed to render challenge description", "error", err, "challenge_id", c.ID)
		return
	}
	c.DescriptionHTML = html
}
