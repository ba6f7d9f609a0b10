package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/trakapp/trak/internal/model"
)

var (
	ErrRewardNotFound = errors.New("reward not found")
	ErrRewardSoldOut  = errors.New("reward is no longer available")
)

type RewardRepository interface {
	Create(reward *model.Reward) error
	ByID(id string) (*model.Reward, error)
	Rewards() ([]*model.Reward, error)
	// Reserve claims one unit of stock, honouring quantity_limit.
	Reserve(id string) error
	// Release returns a unit claimed by Reserve.
	Release(id string) error
	CreateRedemption(redemption *model.UserRedemption) error
	Redemptions(userID string) ([]*model.UserRedemption, error)
}

type rewardRepository struct {
	db *sqlx.DB
}

func NewRewardRepository(db *sqlx.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) Create(reward *model.Reward) error {
	query := `INSERT INTO rewards (id, title, description, cost_points, quantity_limit, redeemed_count, active, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		reward.ID,
		reward.Title,
		reward.Description,
		reward.CostPoints,
		reward.QuantityLimit,
		reward.RedeemedCount,
		reward.Active,
		reward.CreatedAt.UTC(),
	)

	return err
}

func (r *rewardRepository) ByID(id string) (*model.Reward, error) {
	reward := &model.Reward{}
	err := r.db.Get(reward, `SELECT * FROM rewards WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrRewardNotFound
	}
	if err != nil {
		return nil, err
	}

	return reward, nil
}

func (r *rewardRepository) Rewards() ([]*model.Reward, error) {
	var rewards []*model.Reward
	query := `SELECT * FROM rewards WHERE active = $1 ORDER BY cost_points ASC, title ASC`

	err := r.db.Select(&rewards, query, true)
	if err != nil {
		return nil, err
	}

	return rewards, nil
}

func (r *rewardRepository) Reserve(id string) error {
	query := `UPDATE rewards
	          SET redeemed_count = redeemed_count + 1
	          WHERE id = $1 AND active = $2 AND (quantity_limit IS NULL OR redeemed_count < quantity_limit)`

	result, err := r.db.Exec(query, id, true)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		// Distinguish a missing reward from an exhausted one
		_, err := r.ByID(id)
		if err != nil {
			return err
		}
		return ErrRewardSoldOut
	}

	return nil
}

func (r *rewardRepository) Release(id string) error {
	query := `UPDATE rewards SET redeemed_count = redeemed_count - 1 WHERE id = $1 AND redeemed_count > 0`
	_, err := r.db.Exec(query, id)
	return err
}

func (r *rewardRepository) CreateRedemption(redemption *model.UserRedemption) error {
	query := `INSERT INTO user_redemptions (id, user_id, reward_id, points_spent, redeemed_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query,
		redemption.ID,
		redemption.UserID,
		redemption.RewardID,
		redemption.PointsSpent,
		redemption.RedeemedAt.UTC(),
	)

	return err
}

func (r *rewardRepository) Redemptions(userID string) ([]*model.UserRedemption, error) {
	var redemptions []*model.UserRedemption
	query := `SELECT ur.*, rw.title AS reward_title
	          FROM user_redemptions ur
	          JOIN rewards rw ON rw.id = ur.reward_id
	          WHERE ur.user_id = $1
	          ORDER BY ur.redeemed_at DESC`

	err := r.db.Select(&redemptions, query, userID)
	if err != nil {
		return nil, err
	}

	return redemptions, nil
}
