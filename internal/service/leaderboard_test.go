package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trakapp/trak/internal/repository"
)

func TestLeaderboard(t *testing.T) {
	h := newHarness(t)
	points := map[string]int{"ada": 300, "grace": 200, "linus": 100, "ken": 50}
	ids := map[string]string{}
	for name, p := range points {
		user := h.signup(t, name)
		h.grant(t, user.ID, p)
		ids[name] = user.ID
	}

	board, err := h.leaderboard.Top(ids["grace"], 0)
	require.NoError(t, err)
	require.Len(t, board.Entries, 3, "default limit")
	assert.Equal(t, "ada", board.Entries[0].Username)
	assert.Equal(t, 2, board.UserRank)
	require.NoError(t, board.Validate())

	board, err = h.leaderboard.Top(ids["ken"], 2)
	require.NoError(t, err)
	assert.Len(t, board.Entries, 2)
	assert.Equal(t, 4, board.UserRank, "ranked outside the visible entries")

	board, err = h.leaderboard.Top("", 500)
	require.NoError(t, err)
	assert.Len(t, board.Entries, 4)
	assert.Zero(t, board.UserRank)

	_, err = h.leaderboard.Top("missing", 2)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
