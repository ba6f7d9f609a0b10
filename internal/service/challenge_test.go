package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trakapp/trak/internal/model"
	"github.com/trakapp/trak/internal/repository"
)

func challengeInput(title string) model.ChallengeInput {
	return model.ChallengeInput{
		Title:        title,
		Description:  "Ride **every** day",
		GoalType:     model.ChallengeGoalDistance,
		GoalValue:    100,
		RewardPoints: 50,
		StartDate:    weekOf,
		EndDate:      weekOf.AddDate(0, 0, 14),
	}
}

func TestCreateChallenge(t *testing.T) {
	h := newHarness(t)
	ada := h.signup(t, "ada")
	admin := h.signup(t, "root")

	_, err := h.challenge.Create(ada, challengeInput("March miles"), weekOf)
	assert.ErrorIs(t, err, ErrForbidden)

	challenge, err := h.challenge.Create(admin, challengeInput("March miles"), weekOf)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, challenge.CreatedBy)
	assert.Contains(t, challenge.DescriptionHTML, "<strong>every</strong>")

	bad := challengeInput("Backwards")
	bad.EndDate = bad.StartDate.AddDate(0, 0, -1)
	var validationErr *ValidationError
	_, err = h.challenge.Create(admin, bad, weekOf)
	assert.ErrorAs(t, err, &validationErr)
}

func TestJoinChallenge(t *testing.T) {
	h := newHarness(t)
	ada := h.signup(t, "ada")
	admin := h.signup(t, "root")

	challenge, err := h.challenge.Create(admin, challengeInput("March miles"), weekOf)
	require.NoError(t, err)

	uc, err := h.challenge.Join(ada.ID, challenge.ID, weekOf.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.True(t, uc.Challenge.Joined)
	assert.Equal(t, 1, uc.Challenge.Participants)
	assert.NotEmpty(t, uc.Challenge.DescriptionHTML)

	_, err = h.challenge.Join(ada.ID, challenge.ID, weekOf.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, repository.ErrAlreadyJoined)

	_, err = h.challenge.Join(admin.ID, challenge.ID, challenge.EndDate)
	assert.ErrorIs(t, err, ErrChallengeEnded)

	_, err = h.challenge.Join(ada.ID, "missing", weekOf)
	assert.ErrorIs(t, err, repository.ErrChallengeNotFound)

	listed, err := h.challenge.List(ada.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Joined)
	assert.Equal(t, 1, listed[0].Participants)

	listed, err = h.challenge.List(admin.ID)
	require.NoError(t, err)
	assert.False(t, listed[0].Joined)
}
