package model

import (
	"time"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

type User struct {
	ID                  string    `db:"id" json:"id"`
	Username            string    `db:"username" json:"username"`
	Email               string    `db:"email" json:"email"`
	Name                string    `db:"name" json:"name"`
	Role                string    `db:"role" json:"role"`
	PasswordHash        *string   `db:"password_hash" json:"-"`
	IsNewUser           bool      `db:"is_new_user" json:"is_new_user"`
	NeedsPasswordChange bool      `db:"needs_password_change" json:"needs_password_change"`
	Points              int       `db:"points" json:"points"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserUpdate is a sparse update of the onboarding flags and password hash.
// A nil field is left untouched; a pointer to false or "" is applied.
type UserUpdate struct {
	IsNewUser           *bool
	NeedsPasswordChange *bool
	PasswordHash        *string
}

func (u UserUpdate) IsEmpty() bool {
	return u.IsNewUser == nil && u.NeedsPasswordChange == nil && u.PasswordHash == nil
}

// Apply overwrites the provided fields of user in place.
func (u UserUpdate) Apply(user *User) {
	if u.IsNewUser != nil {
		user.IsNewUser = *u.IsNewUser
	}
	if u.NeedsPasswordChange != nil {
		user.NeedsPasswordChange = *u.NeedsPasswordChange
	}
	if u.PasswordHash != nil {
		hash := *u.PasswordHash
		user.PasswordHash = &hash
	}
}

type LeaderboardEntry struct {
	Rank     int    `db:"-" json:"rank"`
	UserID   string `db:"id" json:"user_id"`
	Username string `db:"username" json:"username"`
	Name     string `db:"name" json:"name"`
	Points   int    `db:"points" json:"points"`
}

type Leaderboard struct {
	Entries []LeaderboardEntry `json:"entries"`
	// UserRank is the caller's 1-based rank, 0 when unranked.
	UserRank int `json:"user_rank"`
}
