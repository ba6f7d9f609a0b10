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

func newCommute(userID string, mode model.CommuteType, weekStart time.Time) *model.CommuteLog {
	return &model.CommuteLog{
		ID:           uuid.New().String(),
		UserID:       userID,
		CommuteType:  mode,
		DaysLogged:   3,
		DistanceKm:   12.5,
		WeekStart:    weekStart,
		CO2Saved:     5,
		PointsEarned: 30,
		CreatedAt:    weekStart.Add(time.Hour),
	}
}

func TestCommuteCreateRejectsDuplicateWeek(t *testing.T) {
	repo := NewCommuteRepository(dbtest.New(t))
	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(newCommute("u1", model.CommuteCycle, week)))
	require.NoError(t, repo.Create(newCommute("u1", model.CommuteWalk, week)), "another mode in the same week is fine")
	require.NoError(t, repo.Create(newCommute("u2", model.CommuteCycle, week)), "another user is fine")

	err := repo.Create(newCommute("u1", model.CommuteCycle, week))
	assert.ErrorIs(t, err, ErrDuplicateCommute)
}

func TestCommuteCurrentWeek(t *testing.T) {
	repo := NewCommuteRepository(dbtest.New(t))
	thisWeek := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	lastWeek := thisWeek.AddDate(0, 0, -7)

	require.NoError(t, repo.Create(newCommute("u1", model.CommuteCycle, thisWeek)))
	require.NoError(t, repo.Create(newCommute("u1", model.CommuteWalk, lastWeek)))
	require.NoError(t, repo.Create(newCommute("u2", model.CommuteCycle, thisWeek)))

	now := thisWeek.Add(3*24*time.Hour + 5*time.Hour)
	logs, err := repo.Current("u1", now)
	require.NoError(t, err)
	require.Len(t, logs, 1)

	log := logs[0]
	assert.Equal(t, model.CommuteCycle, log.CommuteType)
	assert.Equal(t, 3, log.DaysLogged)
	assert.InDelta(t, 12.5, log.DistanceKm, 0.001)
	assert.True(t, thisWeek.Equal(log.WeekStart))
}

func TestCommuteHistoryNewestFirst(t *testing.T) {
	repo := NewCommuteRepository(dbtest.New(t))
	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	for i := range 3 {
		require.NoError(t, repo.Create(newCommute("u1", model.CommuteCycle, week.AddDate(0, 0, -7*i))))
	}

	logs, err := repo.History("u1")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.True(t, logs[0].WeekStart.After(logs[1].WeekStart))
	assert.True(t, logs[1].WeekStart.After(logs[2].WeekStart))

	empty, err := repo.History("nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
