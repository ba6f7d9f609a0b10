package client

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trakapp/trak/internal/model"
)

func TestSessionInitFetchesProfileOnce(t *testing.T) {
	srv := newFakeServer(t)
	hints := &MemoryHintStore{}
	session := NewSession(newTestAPI(t, srv, &RecordingNotifier{}), hints)

	assert.True(t, session.Loading())

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session.Init(context.Background())
		}()
	}
	wg.Wait()
	session.Init(context.Background())

	assert.Equal(t, 1, srv.Hits("GET /api/user/profile"))
	assert.False(t, session.Loading())
	require.NotNil(t, session.User())
	assert.Equal(t, "ada", session.User().Username)

	hint, err := hints.Load()
	require.NoError(t, err)
	require.NotNil(t, hint)
	assert.Equal(t, "u1", hint.ID)
}

func TestSessionInitWithoutLogin(t *testing.T) {
	srv := newFakeServer(t)
	srv.loggedIn.Store(false)

	hints := &MemoryHintStore{}
	require.NoError(t, hints.Save(&testUser))

	session := NewSession(newTestAPI(t, srv, &RecordingNotifier{}), hints)
	user := session.Init(context.Background())

	assert.Nil(t, user)
	assert.False(t, session.Loading())
	assert.Nil(t, session.Hint(), "a rejected session drops the stale hint")
}

func TestSessionLoginClearsCache(t *testing.T) {
	srv := newFakeServer(t)
	api := newTestAPI(t, srv, &RecordingNotifier{})
	session := NewSession(api, nil)
	ctx := context.Background()

	_, err := api.UserStats(ctx, "")
	require.NoError(t, err)

	user, err := session.Login(ctx, "ada", "correct horse battery")
	require.NoError(t, err)

	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, user, session.User())
	assert.False(t, api.Cache().State(Key(ResourceStats)).Cached)
}

func TestSessionLogoutResetsEvenWhenServerFails(t *testing.T) {
	srv := newFakeServer(t)
	api := newTestAPI(t, srv, &RecordingNotifier{})
	hints := &MemoryHintStore{}
	session := NewSession(api, hints)
	ctx := context.Background()

	_, err := session.Login(ctx, "ada", "correct horse battery")
	require.NoError(t, err)
	_, err = api.UserStats(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, api.Client().Cookies())

	srv.failLogout.Store(true)
	err = session.Logout(ctx)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 500, apiErr.Status)

	assert.Nil(t, session.User())
	assert.Empty(t, api.Client().Cookies())
	assert.False(t, api.Cache().State(Key(ResourceStats)).Cached)
	assert.Nil(t, session.Hint())
}

func TestSessionUpdateReplacesUser(t *testing.T) {
	session := NewSession(NewAPI(nil, nil, nil), nil)

	session.SetCurrentUser(&testUser)
	assert.Equal(t, "ada", session.User().Username)
	assert.False(t, session.Loading())

	session.SetCurrentUser(nil)
	assert.Nil(t, session.User())
	assert.Nil(t, session.Hint())
}

func TestSessionFromContext(t *testing.T) {
	session := NewSession(NewAPI(nil, nil, nil), nil)
	ctx := WithSession(context.Background(), session)

	assert.Same(t, session, SessionFrom(ctx))
	assert.Panics(t, func() {
		SessionFrom(context.Background())
	})
}

func TestFileHintStore(t *testing.T) {
	store := FileHintStore{Path: filepath.Join(t.TempDir(), "trak", "session.json")}

	user, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, user)

	require.NoError(t, store.Save(&model.User{ID: "u1", Username: "ada", Points: 15}))

	info, err := os.Stat(store.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	user, err = store.Load()
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, 15, user.Points)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing twice is fine")

	user, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestFileHintStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := FileHintStore{Path: path}.Load()
	assert.Error(t, err)
}
