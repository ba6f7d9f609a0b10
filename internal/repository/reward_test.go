package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trakapp/trak/internal/db/dbtest"
	"github.com/trakapp/trak/internal/model"
)

func newReward(title string, cost int, limit *int) *model.Reward {
	return &model.Reward{
		ID:            uuid.New().String(),
		Title:         title,
		CostPoints:    cost,
		QuantityLimit: limit,
		Active:        true,
		CreatedAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRewardsListActiveByCost(t *testing.T) {
	repo := NewRewardRepository(dbtest.New(t))

	coffee := newReward("Coffee", 50, nil)
	lunch := newReward("Lunch", 200, nil)
	retired := newReward("Retired", 10, nil)
	retired.Active = false
	for _, r := range []*model.Reward{lunch, coffee, retired} {
		require.NoError(t, repo.Create(r))
	}

	rewards, err := repo.Rewards()
	require.NoError(t, err)
	require.Len(t, rewards, 2)
	assert.Equal(t, "Coffee", rewards[0].Title)
	assert.Equal(t, "Lunch", rewards[1].Title)
	assert.Nil(t, rewards[0].QuantityLimit)

	_, err = repo.ByID("missing")
	assert.ErrorIs(t, err, ErrRewardNotFound)
}

func TestRewardReserveHonoursLimit(t *testing.T) {
	repo := NewRewardRepository(dbtest.New(t))
	limit := 2
	reward := newReward("Bike tune-up", 300, &limit)
	require.NoError(t, repo.Create(reward))

	require.NoError(t, repo.Reserve(reward.ID))
	require.NoError(t, repo.Reserve(reward.ID))
	assert.ErrorIs(t, repo.Reserve(reward.ID), ErrRewardSoldOut)

	require.NoError(t, repo.Release(reward.ID))
	require.NoError(t, repo.Reserve(reward.ID))

	stored, err := repo.ByID(reward.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.RedeemedCount)
	assert.Equal(t, 0, stored.Remaining())

	assert.ErrorIs(t, repo.Reserve("missing"), ErrRewardNotFound)
}

func TestRedemptionsNewestFirst(t *testing.T) {
	repo := NewRewardRepository(dbtest.New(t))
	reward := newReward("Coffee", 50, nil)
	require.NoError(t, repo.Create(reward))

	at := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	for i := range 2 {
		require.NoError(t, repo.CreateRedemption(&model.UserRedemption{
			ID:          uuid.New().String(),
			UserID:      "u1",
			RewardID:    reward.ID,
			PointsSpent: 50,
			RedeemedAt:  at.AddDate(0, 0, i),
		}))
	}

	redemptions, err := repo.Redemptions("u1")
	require.NoError(t, err)
	require.Len(t, redemptions, 2)
	assert.Equal(t, "Coffee", redemptions[0].RewardTitle)
	assert.True(t, redemptions[0].RedeemedAt.After(redemptions[1].RedeemedAt))

	none, err := repo.Redemptions("u2")
	require.NoError(t, err)
	assert.Empty(t, none)
}
