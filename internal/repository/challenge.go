package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/trakapp/trak/internal/model"
)

var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrAlreadyJoined     = errors.New("challenge already joined")
)

type ChallengeRepository interface {
	Create(challenge *model.Challenge) error
	ByID(id string) (*model.Challenge, error)
	// Challenges lists all challenges with participant counts and whether userID joined.
	Challenges(userID string) ([]*model.Challenge, error)
	Join(userID, challengeID string) (*model.UserChallenge, error)
	UserChallenges(userID string) ([]*model.UserChallenge, error)
	// Active returns the user's open, uncompleted challenges at now.
	Active(userID string, now time.Time) ([]*model.UserChallenge, error)
	// AddProgress adds delta to an uncompleted challenge in one statement
	// and returns the new total. A completed or missing row gives
	// ErrChallengeNotFound.
	AddProgress(id string, delta float64) (float64, error)
	// MarkCompleted reports false when the challenge was already completed.
	MarkCompleted(id string, at time.Time) (bool, error)
	CountCompleted(userID string) (int, error)
}

type challengeRepository struct {
	db *sqlx.DB
}

func NewChallengeRepository(db *sqlx.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) Create(challenge *model.Challenge) error {
	query := `INSERT INTO challenges (id, title, description, goal_type, goal_value, reward_points, start_date, end_date, created_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query,
		challenge.ID,
		challenge.Title,
		challenge.Description,
		challenge.GoalType,
		challenge.GoalValue,
		challenge.RewardPoints,
		challenge.StartDate.UTC(),
		challenge.EndDate.UTC(),
		challenge.CreatedBy,
		challenge.CreatedAt.UTC(),
	)

	return err
}

func (r *challengeRepository) ByID(id string) (*model.Challenge, error) {
	challenge := &model.Challenge{}
	query := `SELECT c.*, (SELECT COUNT(*) FROM user_challenges uc WHERE uc.challenge_id = c.id) AS participants
	          FROM challenges c WHERE c.id = $1`

	err := r.db.Get(challenge, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}

	return challenge, nil
}

func (r *challengeRepository) Challenges(userID string) ([]*model.Challenge, error) {
	var challenges []*model.Challenge
	query := `SELECT c.*,
	                 (SELECT COUNT(*) FROM user_challenges uc WHERE uc.challenge_id = c.id) AS participants,
	                 EXISTS (SELECT 1 FROM user_challenges uc WHERE uc.challenge_id = c.id AND uc.user_id = $1) AS joined
	          FROM challenges c
	          ORDER BY c.end_date ASC`

	err := r.db.Select(&challenges, query, userID)
	if err != nil {
		return nil, err
	}

	return challenges, nil
}

func (r *challengeRepository) Join(userID, challengeID string) (*model.UserChallenge, error) {
	uc := &model.UserChallenge{
		ID:          uuid.New().String(),
		UserID:      userID,
		ChallengeID: challengeID,
		JoinedAt:    time.Now().UTC(),
	}

	query := `INSERT INTO user_challenges (id, user_id, challenge_id, progress, completed, joined_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(query, uc.ID, uc.UserID, uc.ChallengeID, 0, false, uc.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyJoined
		}
		return nil, err
	}

	return uc, nil
}

const userChallengeSelect = `SELECT uc.*,
       c.id AS "challenge.id",
       c.title AS "challenge.title",
       c.description AS "challenge.description",
       c.goal_type AS "challenge.goal_type",
       c.goal_value AS "challenge.goal_value",
       c.reward_points AS "challenge.reward_points",
       c.start_date AS "challenge.start_date",
       c.end_date AS "challenge.end_date",
       c.created_by AS "challenge.created_by",
       c.created_at AS "challenge.created_at"
FROM user_challenges uc
JOIN challenges c ON c.id = uc.challenge_id`

func (r *challengeRepository) UserChallenges(userID string) ([]*model.UserChallenge, error) {
	var ucs []*model.UserChallenge
	query := userChallengeSelect + ` WHERE uc.user_id = $1 ORDER BY uc.completed ASC, c.end_date ASC`

	err := r.db.Select(&ucs, query, userID)
	if err != nil {
		return nil, err
	}

	return ucs, nil
}

func (r *challengeRepository) Active(userID string, now time.Time) ([]*model.UserChallenge, error) {
	var ucs []*model.UserChallenge
	query := userChallengeSelect + `
	          WHERE uc.user_id = $1 AND uc.completed = $2 AND c.start_date <= $3 AND c.end_date > $3`

	err := r.db.Select(&ucs, query, userID, false, now.UTC())
	if err != nil {
		return nil, err
	}

	return ucs, nil
}

func (r *challengeRepository) AddProgress(id string, delta float64) (float64, error) {
	var progress float64
	query := `UPDATE user_challenges SET progress = progress + $1 WHERE id = $2 AND completed = $3 RETURNING progress`

	err := r.db.QueryRow(query, delta, id, false).Scan(&progress)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrChallengeNotFound
	}
	if err != nil {
		return 0, err
	}

	return progress, nil
}

func (r *challengeRepository) MarkCompleted(id string, at time.Time) (bool, error) {
	query := `UPDATE user_challenges SET completed = $1, completed_at = $2 WHERE id = $3 AND completed = $4`

	result, err := r.db.Exec(query, true, at.UTC(), id, false)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows == 1, nil
}

func (r *challengeRepository) CountCompleted(userID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM user_challenges WHERE user_id = $1 AND completed = $2`
	err := r.db.QueryRow(query, userID, true).Scan(&count)
	return count, err
}
