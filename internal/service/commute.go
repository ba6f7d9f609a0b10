package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/trakapp/trak/internal/impact"
	"github.com/trakapp/trak/internal/metrics"
	"github.com/trakapp/trak/internal/model"
	"github.com/trakapp/trak/internal/repository"
	"github.com/trakapp/trak/internal/storage"
	"github.com/trakapp/trak/internal/validation"
)

var ErrCommuteAlreadyLogged = errors.New("this commute type is already logged for that week")

type CommuteService struct {
	commuteRepository   repository.CommuteRepository
	userRepository      repository.UserRepository
	challengeRepository repository.ChallengeRepository
	emailService        *EmailService
	storage             storage.Storage
	metrics             *metrics.Metrics
}

func NewCommuteService(
	commuteRepository repository.CommuteRepository,
	userRepository repository.UserRepository,
	challengeRepository repository.ChallengeRepository,
	emailService *EmailService,
	storage storage.Storage,
	metrics *metrics.Metrics,
) *CommuteService {
	return &CommuteService{
		commuteRepository:   commuteRepository,
		userRepository:      userRepository,
		challengeRepository: challengeRepository,
		emailService:        emailService,
		storage:             storage,
		metrics:             metrics,
	}
}

// Log records a week of commuting, awards its points and advances the
// user's active challenges.
func (s *CommuteService) Log(ctx context.Context, userID string, in model.CommuteLogInput, now time.Time) (*model.CommuteLog, error) {
	err := validation.ValidateCommuteInput(in)
	if err != nil {
		return nil, invalid(err)
	}

	log := &model.CommuteLog{
		ID:           uuid.New().String(),
		UserID:       userID,
		CommuteType:  in.CommuteType,
		DaysLogged:   in.DaysLogged,
		DistanceKm:   in.DistanceKm,
		WeekStart:    in.WeekStart,
		CO2Saved:     impact.CO2Saved(in.CommuteType, in.DistanceKm, in.DaysLogged),
		PointsEarned: impact.Points(in.CommuteType, in.DaysLogged),
		CreatedAt:    now.UTC(),
	}

	err = s.commuteRepository.Create(log)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateCommute) {
			return nil, ErrCommuteAlreadyLogged
		}
		return nil, fmt.Errorf("failed to create commute log: %w", err)
	}

	if log.PointsEarned > 0 {
		_, err = s.userRepository.AddPoints(userID, log.PointsEarned)
		if err != nil {
			return nil, fmt.Errorf("failed to award points: %w", err)
		}
	}

	s.metrics.CommuteLogged(string(log.CommuteType), log.CO2Saved, log.PointsEarned)
	slog.Info("commute logged",
		"user_id", userID,
		"commute_type", log.CommuteType,
		"days", log.DaysLogged,
		"co2_saved", log.CO2Saved,
		"points", log.PointsEarned,
	)

	s.advanceChallenges(ctx, userID, log, now)

	return log, nil
}

// advanceChallenges never fails the log it was triggered by.
func (s *CommuteService) advanceChallenges(ctx context.Context, userID string, log *model.CommuteLog, now time.Time) {
	active, err := s.challengeRepository.Active(userID, now)
	if err != nil {
		slog.Warn("failed to load active challenges", "error", err, "user_id", userID)
		return
	}

	for _, uc := range active {
		delta := impact.ChallengeContribution(uc.Challenge.GoalType, log)
		if delta <= 0 {
			continue
		}

		progress, err := s.challengeRepository.AddProgress(uc.ID, delta)
		if errors.Is(err, repository.ErrChallengeNotFound) {
			// Completed by a concurrent log since Active was read
			continue
		}
		if err != nil {
			slog.Warn("failed to update challenge progress", "error", err, "user_id", userID, "challenge_id", uc.ChallengeID)
			continue
		}
		uc.Progress = progress

		if impact.ChallengeProgress(uc.Challenge.GoalValue, progress) < 100 {
			continue
		}

		doneAt := now.UTC()
		won, err := s.challengeRepository.MarkCompleted(uc.ID, doneAt)
		if err != nil {
			slog.Warn("failed to complete challenge", "error", err, "user_id", userID, "challenge_id", uc.ChallengeID)
			continue
		}
		if !won {
			continue
		}

		uc.Completed = true
		uc.CompletedAt = &doneAt
		s.completeChallenge(ctx, userID, uc)
	}
}

func (s *CommuteService) completeChallenge(ctx context.Context, userID string, uc *model.UserChallenge) {
	s.metrics.ChallengeCompleted(uc.Challenge.RewardPoints)
	slog.Info("challenge completed", "user_id", userID, "challenge_id", uc.ChallengeID)

	user, err := s.userRepository.AddPoints(userID, uc.Challenge.RewardPoints)
	if err != nil {
		slog.Error("failed to award challenge points", "error", err, "user_id", userID, "challenge_id", uc.ChallengeID)
		return
	}

	err = s.emailService.SendChallengeCompletedEmail(ctx, user.Email, user.Name, uc.Challenge.Title, uc.Challenge.RewardPoints)
	if err != nil {
		slog.Warn("failed to send challenge completed email", "error", err, "user_id", userID)
	}
}

func (s *CommuteService) Current(userID string, now time.Time) ([]*model.CommuteLog, error) {
	logs, err := s.commuteRepository.Current(userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get current week: %w", err)
	}
	return logs, nil
}

func (s *CommuteService) History(userID string) ([]*model.CommuteLog, error) {
	logs, err := s.commuteRepository.History(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get commute history: %w", err)
	}
	return logs, nil
}

type commuteExport struct {
	UserID     string              `json:"user_id"`
	ExportedAt time.Time           `json:"exported_at"`
	Commutes   []*model.CommuteLog `json:"commutes"`
}

// Export uploads the user's history as JSON and returns a presigned download URL.
func (s *CommuteService) Export(ctx context.Context, userID string, now time.Time) (string, error) {
	if s.storage == nil {
		return "", ErrStorageDisabled
	}

	logs, err := s.History(userID)
	if err != nil {
		return "", err
	}

	body, err := json.MarshalIndent(commuteExport{
		UserID:     userID,
		ExportedAt: now.UTC(),
		Commutes:   logs,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}

	key := fmt.Sprintf("exports/%s/commutes-%s.json", userID, now.UTC().Format("20060102T150405Z"))
	err = s.storage.Save(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to save export: %w", err)
	}

	url, err := s.storage.PresignedURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to sign export url: %w", err)
	}

	slog.Info("commutes exported", "user_id", userID, "key", key, "count", len(logs))
	return url, nil
}
