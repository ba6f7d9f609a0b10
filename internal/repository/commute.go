package repository

import (
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/trakapp/trak/internal/model"
)

var (
	ErrDuplicateCommute = errors.New("commute already logged for this week")
)

type CommuteRepository interface {
	Create(log *model.CommuteLog) error
	// Current returns logs whose week started within the seven days before now.
	Current(userID string, now time.Time) ([]*model.CommuteLog, error)
	History(userID string) ([]*model.CommuteLog, error)
}

type commuteRepository struct {
	db *sqlx.DB
}

func NewCommuteRepository(db *sqlx.DB) CommuteRepository {
	return &commuteRepository{db: db}
}

func (r *commuteRepository) Create(log *model.CommuteLog) error {
	query := `INSERT INTO commute_logs (id, user_id, commute_type, days_logged, distance_km, week_start, co2_saved, points_earned, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	log.WeekStart = log.WeekStart.UTC().Truncate(time.Second)
	log.CreatedAt = log.CreatedAt.UTC()

	_, err := r.db.Exec(query,
		log.ID,
		log.UserID,
		log.CommuteType,
		log.DaysLogged,
		log.DistanceKm,
		log.WeekStart,
		log.CO2Saved,
		log.PointsEarned,
		log.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCommute
		}
		return err
	}

	return nil
}

func (r *commuteRepository) Current(userID string, now time.Time) ([]*model.CommuteLog, error) {
	var logs []*model.CommuteLog
	query := `SELECT * FROM commute_logs
	          WHERE user_id = $1 AND week_start > $2 AND week_start <= $3
	          ORDER BY created_at ASC`

	now = now.UTC()
	err := r.db.Select(&logs, query, userID, now.AddDate(0, 0, -7), now)
	if err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *commuteRepository) History(userID string) ([]*model.CommuteLog, error) {
	var logs []*model.CommuteLog
	query := `SELECT * FROM commute_logs WHERE user_id = $1 ORDER BY week_start DESC, created_at ASC`

	err := r.db.Select(&logs, query, userID)
	if err != nil {
		return nil, err
	}

	return logs, nil
}
