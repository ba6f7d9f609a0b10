package model

import (
	"time"
)

type Reward struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	CostPoints    int       `db:"cost_points" json:"cost_points"`
	QuantityLimit *int      `db:"quantity_limit" json:"quantity_limit,omitempty"`
	RedeemedCount int       `db:"redeemed_count" json:"redeemed_count"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Remaining returns how many redemptions are left, or -1 when unlimited.
func (r *Reward) Remaining() int {
	if r.QuantityLimit == nil {
		return -1
	}
	left := *r.QuantityLimit - r.RedeemedCount
	if left < 0 {
		return 0
	}
	return left
}

type RewardInput struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	CostPoints    int    `json:"cost_points"`
	QuantityLimit *int   `json:"quantity_limit,omitempty"`
}

type UserRedemption struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	RewardID    string    `db:"reward_id" json:"reward_id"`
	RewardTitle string    `db:"reward_title" json:"reward_title"`
	PointsSpent int       `db:"points_spent" json:"points_spent"`
	RedeemedAt  time.Time `db:"redeemed_at" json:"redeemed_at"`
}
