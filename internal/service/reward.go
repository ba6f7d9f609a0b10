package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/trakapp/trak/internal/metrics"
	"github.com/trakapp/trak/internal/model"
	"github.com/trakapp/trak/internal/repository"
	"github.com/trakapp/trak/internal/validation"
)

type RewardService struct {
	rewardRepository repository.RewardRepository
	userRepository   repository.UserRepository
	emailService     *EmailService
	metrics          *metrics.Metrics
}

func NewRewardService(
	rewardRepository repository.RewardRepository,
	userRepository repository.UserRepository,
	emailService *EmailService,
	metrics *metrics.Metrics,
) *RewardService {
	return &RewardService{
		rewardRepository: rewardRepository,
		userRepository:   userRepository,
		emailService:     emailService,
		metrics:          metrics,
	}
}

// Create is restricted to admins.
func (s *RewardService) Create(actor *model.User, in model.RewardInput, now time.Time) (*model.Reward, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	in.Title = strings.TrimSpace(in.Title)
	err := validation.ValidateRewardInput(in)
	if err != nil {
		return nil, invalid(err)
	}

	reward := &model.Reward{
		ID:            uuid.New().String(),
		Title:         in.Title,
		Description:   in.Description,
		CostPoints:    in.CostPoints,
		QuantityLimit: in.QuantityLimit,
		Active:        true,
		CreatedAt:     now.UTC(),
	}

	err = s.rewardRepository.Create(reward)
	if err != nil {
		return nil, fmt.Errorf("failed to create reward: %w", err)
	}

	slog.Info("reward created", "reward_id", reward.ID, "user_id", actor.ID)
	return reward, nil
}

func (s *RewardService) List() ([]*model.Reward, error) {
	rewards, err := s.rewardRepository.Rewards()
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	return rewards, nil
}

// Redeem claims stock first and then spends points. When the balance
// falls short the stock is released again and the shortfall is reported.
func (s *RewardService) Redeem(ctx context.Context, userID, rewardID string, now time.Time) (*model.UserRedemption, error) {
	reward, err := s.rewardRepository.ByID(rewardID)
	if err != nil {
		return nil, err
	}
	if !reward.Active {
		return nil, repository.ErrRewardNotFound
	}

	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Points < reward.CostPoints {
		s.metrics.RedemptionRejected("insufficient_points")
		return nil, &InsufficientPointsError{PointsNeeded: reward.CostPoints - user.Points}
	}

	err = s.rewardRepository.Reserve(rewardID)
	if err != nil {
		if errors.Is(err, repository.ErrRewardSoldOut) {
			s.metrics.RedemptionRejected("sold_out")
		}
		return nil, err
	}

	user, err = s.userRepository.SpendPoints(userID, reward.CostPoints)
	if err != nil {
		s.release(rewardID)
		if errors.Is(err, repository.ErrNotEnoughPoints) {
			s.metrics.RedemptionRejected("insufficient_points")
			return nil, s.shortfall(userID, reward.CostPoints)
		}
		return nil, fmt.Errorf("failed to spend points: %w", err)
	}

	redemption := &model.UserRedemption{
		ID:          uuid.New().String(),
		UserID:      userID,
		RewardID:    rewardID,
		RewardTitle: reward.Title,
		PointsSpent: reward.CostPoints,
		RedeemedAt:  now.UTC(),
	}

	err = s.rewardRepository.CreateRedemption(redemption)
	if err != nil {
		s.release(rewardID)
		_, refundErr := s.userRepository.AddPoints(userID, reward.CostPoints)
		if refundErr != nil {
			slog.Error("failed to refund points", "error", refundErr, "user_id", userID, "points", reward.CostPoints)
		}
		return nil, fmt.Errorf("failed to record redemption: %w", err)
	}

	s.metrics.RewardRedeemed()
	slog.Info("reward redeemed", "user_id", userID, "reward_id", rewardID, "points", reward.CostPoints)

	err = s.emailService.SendRedemptionEmail(ctx, user.Email, user.Name, reward.Title, reward.CostPoints, user.Points)
	if err != nil {
		slog.Warn("failed to send redemption email", "error", err, "user_id", userID)
	}

	return redemption, nil
}

func (s *RewardService) release(rewardID string) {
	err := s.rewardRepository.Release(rewardID)
	if err != nil {
		slog.Error("failed to release reward stock", "error", err, "reward_id", rewardID)
	}
}

// shortfall re-reads the balance after a lost race.
func (s *RewardService) shortfall(userID string, cost int) error {
	needed := cost
	user, err := s.userRepository.ByID(userID)
	if err == nil {
		needed = cost - user.Points
	}
	if needed < 1 {
		needed = 1
	}
	return &InsufficientPointsError{PointsNeeded: needed}
}

func (s *RewardService) Redemptions(userID string) ([]*model.UserRedemption, error) {
	redemptions, err := s.rewardRepository.Redemptions(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}
	return redemptions, nil
}
