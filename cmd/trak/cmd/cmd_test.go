package cmd

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trakapp/trak/internal/app"
	"github.com/trakapp/trak/internal/config"
	"github.com/trakapp/trak/internal/db/dbtest"
	"github.com/trakapp/trak/internal/middleware"
	"github.com/trakapp/trak/internal/routes"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		AppName:                 "Trak",
		AppEnv:                  "development",
		AppURL:                  "http://localhost:8090",
		UserStore:               config.UserStoreSQL,
		JWTSecret:               "test-secret",
		JWTExpiry:               time.Hour,
		ResetExpiry:             time.Hour,
		EmailFrom:               "noreply@example.com",
		LeaderboardDefaultLimit: 10,
	}

	a, err := app.Wire(cfg, dbtest.New(t), nil)
	require.NoError(t, err)

	srv := httptest.NewServer(routes.SetupRoutes(a, middleware.NewRateLimiter(100, time.Minute)))
	t.Cleanup(srv.Close)
	return srv
}

type result struct {
	out string
	err string
}

// run executes one CLI invocation, sharing state through dir like
// separate processes would.
func run(t *testing.T, srv *httptest.Server, dir, stdin string, args ...string) (result, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := RootCmd()
	root.SetArgs(append([]string{"--url", srv.URL, "--state-dir", dir}, args...))
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))

	err := root.Execute()
	return result{out: out.String(), err: errOut.String()}, err
}

func TestCommuteFlowAcrossInvocations(t *testing.T) {
	t.Setenv("TRAK_PASSWORD", "")
	srv := newTestServer(t)
	dir := t.TempDir()

	res, err := run(t, srv, dir, "correct-horse-battery\n",
		"signup", "--username", "alice", "--email", "alice@example.com", "--name", "Alice")
	require.NoError(t, err, res.err)
	assert.Contains(t, res.out, "Welcome, Alice!")

	info, err := os.Stat(filepath.Join(dir, "cookies.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	res, err = run(t, srv, dir, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, res.out, "Alice (@alice) <alice@example.com>")

	res, err = run(t, srv, dir, "", "log", "--type", "cycle", "--distance", "10", "--days", "5")
	require.NoError(t, err, res.err)
	assert.Contains(t, res.out, "Commute logged")
	assert.Contains(t, res.out, "50 points earned")

	res, err = run(t, srv, dir, "", "log", "--type", "cycle", "--distance", "10", "--days", "5")
	require.ErrorIs(t, err, ErrReported)
	assert.Contains(t, res.err, "Could not log commute: This commute type is already logged for that week")

	res, err = run(t, srv, dir, "", "dashboard")
	require.NoError(t, err, res.err)
	assert.Contains(t, res.out, "Hi Alice")
	assert.Contains(t, res.out, "Cycle")
	assert.Contains(t, res.out, "@alice")

	res, err = run(t, srv, dir, "", "logout")
	require.NoError(t, err, res.err)
	assert.NoFileExists(t, filepath.Join(dir, "cookies.json"))

	res, err = run(t, srv, dir, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, res.out, "Not logged in")

	_, err = run(t, srv, dir, "", "week")
	require.ErrorContains(t, err, "not logged in")
}

func TestUnknownCommuteType(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()

	_, err := run(t, srv, dir, "", "signup", "--username", "bob", "--email", "bob@example.com", "--password", "correct-horse-battery")
	require.NoError(t, err)

	_, err = run(t, srv, dir, "", "log", "--type", "teleport")
	require.ErrorContains(t, err, `unknown commute type "teleport"`)
}

func TestParseWeek(t *testing.T) {
	now := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

	week, err := parseWeek("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), week)

	week, err = parseWeek("2026-03-07", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), week)

	_, err = parseWeek("03/07/2026", now)
	assert.Error(t, err)
}

func TestReadLineSharesStdin(t *testing.T) {
	in := strings.NewReader("old-secret\r\nnew-secret\n")

	first, err := readLine(in)
	require.NoError(t, err)
	second, err := readLine(in)
	require.NoError(t, err)

	assert.Equal(t, "old-secret", first)
	assert.Equal(t, "new-secret", second)
}

func TestCookieStateRoundTrip(t *testing.T) {
	store := &stateStore{dir: filepath.Join(t.TempDir(), "nested")}

	cookies, err := store.loadCookies()
	require.NoError(t, err)
	assert.Nil(t, cookies)

	require.NoError(t, os.MkdirAll(store.dir, 0o700))
	require.NoError(t, os.WriteFile(store.cookiePath(), []byte("{not json"), 0o600))
	cookies, err = store.loadCookies()
	require.NoError(t, err)
	assert.Nil(t, cookies)

	require.NoError(t, store.saveCookies(nil))
	assert.NoFileExists(t, store.cookiePath())
}
