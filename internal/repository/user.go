package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/trakapp/trak/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrNotEnoughPoints   = errors.New("not enough points")
)

// UserRepository is implemented by the relational store and by the
// in-memory fallback. Both must return identical records for identical calls.
type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByUsername(username string) (*model.User, error)
	ByEmail(email string) (*model.User, error)
	// Update applies a sparse update and returns the resulting record.
	Update(id string, update model.UserUpdate) (*model.User, error)
	AddPoints(id string, delta int) (*model.User, error)
	// SpendPoints deducts cost only when the balance covers it.
	SpendPoints(id string, cost int) (*model.User, error)
	Leaderboard(limit int) ([]model.LeaderboardEntry, error)
	Rank(id string) (int, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	query := `INSERT INTO users (id, username, email, name, role, password_hash, is_new_user, needs_password_change, points, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(query,
		user.ID,
		user.Username,
		user.Email,
		user.Name,
		user.Role,
		user.PasswordHash,
		user.IsNewUser,
		user.NeedsPasswordChange,
		user.Points,
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		// Check for unique constraint violation (works for both SQLite and PostgreSQL)
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "username") {
				return ErrDuplicateUsername
			}
			return ErrDuplicateEmail
		}
		return err
	}

	return nil
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	return r.one(`SELECT * FROM users WHERE id = $1`, id)
}

func (r *userRepository) ByUsername(username string) (*model.User, error) {
	return r.one(`SELECT * FROM users WHERE LOWER(username) = LOWER($1)`, username)
}

func (r *userRepository) ByEmail(email string) (*model.User, error) {
	return r.one(`SELECT * FROM users WHERE email = $1`, email)
}

func (r *userRepository) one(query string, args ...any) (*model.User, error) {
	user := &model.User{}
	err := r.db.Get(user, query, args...)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Update writes only the provided columns. An empty update is a read.
func (r *userRepository) Update(id string, update model.UserUpdate) (*model.User, error) {
	if update.IsEmpty() {
		return r.ByID(id)
	}

	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.IsNewUser != nil {
		add("is_new_user", *update.IsNewUser)
	}
	if update.NeedsPasswordChange != nil {
		add("needs_password_change", *update.NeedsPasswordChange)
	}
	if update.PasswordHash != nil {
		add("password_hash", *update.PasswordHash)
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING *`, strings.Join(sets, ", "), len(args))
	return r.one(query, args...)
}

func (r *userRepository) AddPoints(id string, delta int) (*model.User, error) {
	query := `UPDATE users SET points = points + $1, updated_at = $2 WHERE id = $3 RETURNING *`
	return r.one(query, delta, time.Now().UTC(), id)
}

func (r *userRepository) SpendPoints(id string, cost int) (*model.User, error) {
	// Conditional update keeps concurrent redemptions from overdrawing
	query := `UPDATE users SET points = points - $1, updated_at = $2 WHERE id = $3 AND points >= $1 RETURNING *`
	user, err := r.one(query, cost, time.Now().UTC(), id)
	if errors.Is(err, ErrUserNotFound) {
		_, lookupErr := r.ByID(id)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return nil, ErrNotEnoughPoints
	}
	return user, err
}

func (r *userRepository) Leaderboard(limit int) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	query := `SELECT id, username, name, points FROM users ORDER BY points DESC, username ASC LIMIT $1`

	err := r.db.Select(&entries, query, limit)
	if err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

func (r *userRepository) Rank(id string) (int, error) {
	user, err := r.ByID(id)
	if err != nil {
		return 0, err
	}

	var ahead int
	query := `SELECT COUNT(*) FROM users WHERE points > $1 OR (points = $1 AND username < $2)`
	err = r.db.QueryRow(query, user.Points, user.Username).Scan(&ahead)
	if err != nil {
		return 0, err
	}
	return ahead + 1, nil
}

func isUniqueViolation(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value")
}
