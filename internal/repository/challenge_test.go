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

func newChallenge(title string, start, end time.Time) *model.Challenge {
	return &model.Challenge{
		ID:           uuid.New().String(),
		Title:        title,
		Description:  "Ride **every** day",
		GoalType:     model.ChallengeGoalDays,
		GoalValue:    10,
		RewardPoints: 100,
		StartDate:    start,
		EndDate:      end,
		CreatedBy:    "admin",
		CreatedAt:    start,
	}
}

func TestChallengeJoinAndList(t *testing.T) {
	repo := NewChallengeRepository(dbtest.New(t))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	spring := newChallenge("Spring", start, start.AddDate(0, 1, 0))
	summer := newChallenge("Summer", start, start.AddDate(0, 4, 0))
	require.NoError(t, repo.Create(spring))
	require.NoError(t, repo.Create(summer))

	uc, err := repo.Join("u1", spring.ID)
	require.NoError(t, err)
	assert.Equal(t, spring.ID, uc.ChallengeID)
	assert.Zero(t, uc.Progress)

	_, err = repo.Join("u1", spring.ID)
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	_, err = repo.Join("u2", spring.ID)
	require.NoError(t, err)

	challenges, err := repo.Challenges("u1")
	require.NoError(t, err)
	require.Len(t, challenges, 2)
	assert.Equal(t, "Spring", challenges[0].Title, "soonest ending first")
	assert.Equal(t, 2, challenges[0].Participants)
	assert.True(t, challenges[0].Joined)
	assert.Equal(t, 0, challenges[1].Participants)
	assert.False(t, challenges[1].Joined)

	byID, err := repo.ByID(spring.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, byID.Participants)

	_, err = repo.ByID("missing")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestChallengeProgress(t *testing.T) {
	repo := NewChallengeRepository(dbtest.New(t))
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := start.AddDate(0, 0, 10)

	open := newChallenge("Open", start, start.AddDate(0, 1, 0))
	ended := newChallenge("Ended", start.AddDate(0, -2, 0), start)
	require.NoError(t, repo.Create(open))
	require.NoError(t, repo.Create(ended))

	_, err := repo.Join("u1", open.ID)
	require.NoError(t, err)
	_, err = repo.Join("u1", ended.ID)
	require.NoError(t, err)

	active, err := repo.Active("u1", now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Open", active[0].Challenge.Title)
	assert.Equal(t, model.ChallengeGoalDays, active[0].Challenge.GoalType)

	uc := active[0]
	progress, err := repo.AddProgress(uc.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4.0, progress)
	progress, err = repo.AddProgress(uc.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, 10.0, progress)

	done, err := repo.MarkCompleted(uc.ID, now)
	require.NoError(t, err)
	assert.True(t, done)
	done, err = repo.MarkCompleted(uc.ID, now)
	require.NoError(t, err)
	assert.False(t, done, "a challenge completes once")

	_, err = repo.AddProgress(uc.ID, 1)
	assert.ErrorIs(t, err, ErrChallengeNotFound, "completed challenges stop accruing")

	active, err = repo.Active("u1", now)
	require.NoError(t, err)
	assert.Empty(t, active, "completed challenges are no longer active")

	count, err := repo.CountCompleted("u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	mine, err := repo.UserChallenges("u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.False(t, mine[0].Completed, "open work first")
	assert.True(t, mine[1].Completed)
	require.NotNil(t, mine[1].CompletedAt)

	assert.Equal(t, 10.0, mine[1].Progress)

	_, err = repo.AddProgress("missing", 1)
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}
