package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trakapp/trak/internal/model"
)

var testUser = model.User{ID: "u1", Username: "ada", Name: "Ada", Role: model.RoleMember, Points: 120}

// fakeServer mimics the Trak API closely enough to drive the client.
type fakeServer struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int

	loggedIn     atomic.Bool
	failLogout   atomic.Bool
	leaderboard  atomic.Value // *model.Leaderboard
	statsCO2     atomic.Int32
	pointsNeeded int
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	s := &fakeServer{hits: make(map[string]int), pointsNeeded: 40}
	s.loggedIn.Store(true)
	s.leaderboard.Store(&model.Leaderboard{Entries: []model.LeaderboardEntry{
		{Rank: 1, UserID: "u2", Username: "grace", Points: 300},
		{Rank: 2, UserID: "u1", Username: "ada", Points: 120},
	}, UserRank: 2})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/csrf", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrf_token", Value: "tok", Path: "/"})
		reply(w, http.StatusOK, map[string]string{"csrf_token": "tok"})
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		s.loggedIn.Store(true)
		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "jwt", Path: "/"})
		reply(w, http.StatusOK, testUser)
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if s.failLogout.Load() {
			reply(w, http.StatusInternalServerError, map[string]string{"message": "Failed to log out"})
			return
		}
		s.loggedIn.Store(false)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/user/profile", func(w http.ResponseWriter, r *http.Request) {
		if !s.loggedIn.Load() {
			reply(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
			return
		}
		reply(w, http.StatusOK, testUser)
	})
	mux.HandleFunc("GET /api/user/stats", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, model.UserStats{CO2Saved: int(s.statsCO2.Load()), Points: 120})
	})
	mux.HandleFunc("GET /api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, s.leaderboard.Load())
	})
	mux.HandleFunc("POST /api/commutes", func(w http.ResponseWriter, r *http.Request) {
		var in model.CommuteLogInput
		err := json.NewDecoder(r.Body).Decode(&in)
		if err != nil {
			reply(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
			return
		}
		reply(w, http.StatusCreated, model.CommuteLog{
			ID:           "c1",
			UserID:       testUser.ID,
			CommuteType:  in.CommuteType,
			DaysLogged:   in.DaysLogged,
			DistanceKm:   in.DistanceKm,
			WeekStart:    in.WeekStart,
			CO2Saved:     10,
			PointsEarned: 50,
		})
	})
	mux.HandleFunc("POST /api/rewards/{id}/redeem", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusBadRequest, map[string]any{
			"message":      "Not enough points to redeem this reward",
			"pointsNeeded": s.pointsNeeded,
		})
	})

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()

		if r.Method != http.MethodGet {
			cookie, err := r.Cookie("csrf_token")
			if err != nil || cookie.Value != r.Header.Get("X-CSRF-Token") {
				reply(w, http.StatusForbidden, map[string]string{"message": "Invalid CSRF token"})
				return
			}
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)

	return s
}

func (s *fakeServer) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

func reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestAPI(t *testing.T, srv *fakeServer, notifier Notifier) *API {
	t.Helper()

	c, err := New(srv.URL)
	require.NoError(t, err)
	return NewAPI(c, NewCache(), notifier)
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("localhost:8090")
	assert.Error(t, err)

	_, err = New("/api")
	assert.Error(t, err)
}

func TestQueriesAreCached(t *testing.T) {
	srv := newFakeServer(t)
	api := newTestAPI(t, srv, &RecordingNotifier{})
	ctx := context.Background()

	srv.statsCO2.Store(7)
	first, err := api.UserStats(ctx, "")
	require.NoError(t, err)

	srv.statsCO2.Store(99)
	second, err := api.UserStats(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, 7, first.CO2Saved)
	assert.Equal(t, 7, second.CO2Saved)
	assert.Equal(t, 1, srv.Hits("GET /api/user/stats"))

	// Another subject is another key
	_, err = api.UserStats(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits("GET /api/user/stats"))
}

func TestQueryRejectsMalformedResponse(t *testing.T) {
	srv := newFakeServer(t)
	api := newTestAPI(t, srv, &RecordingNotifier{})

	srv.leaderboard.Store(&model.Leaderboard{Entries: []model.LeaderboardEntry{
		{Rank: 1, UserID: "u1", Points: 10},
		{Rank: 2, UserID: "u2", Points: 50},
	}})

	_, err := api.Leaderboard(context.Background(), "", 10)

	assert.ErrorIs(t, err, model.ErrInvalidRecord)
	assert.False(t, api.Cache().State(Key(ResourceLeaderboard, "limit", "10")).Cached)
}

// observingNotifier runs onSuccess before recording, to observe the cache at
// the moment a success is surfaced.
type observingNotifier struct {
	RecordingNotifier
	onSuccess func()
}

func (n *observingNotifier) Success(title, message string) {
	n.onSuccess()
	n.RecordingNotifier.Success(title, message)
}

func TestMutationInvalidatesBeforeNotifying(t *testing.T) {
	srv := newFakeServer(t)
	notifier := &observingNotifier{}
	api := newTestAPI(t, srv, notifier)
	ctx := context.Background()

	_, err := api.UserStats(ctx, "")
	require.NoError(t, err)
	_, err = api.Leaderboard(ctx, "", 0)
	require.NoError(t, err)

	var statsCachedAtSuccess, boardCachedAtSuccess bool
	notifier.onSuccess = func() {
		statsCachedAtSuccess = api.Cache().State(Key(ResourceStats)).Cached
		boardCachedAtSuccess = api.Cache().State(Key(ResourceLeaderboard)).Cached
	}

	log, err := api.LogCommute(ctx, "", model.CommuteLogInput{
		CommuteType: model.CommuteCycle,
		DaysLogged:  5,
		DistanceKm:  10,
		WeekStart:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 50, log.PointsEarned)

	assert.False(t, statsCachedAtSuccess)
	assert.False(t, boardCachedAtSuccess)
	assert.Equal(t, []Notification{{
		Kind:    "success",
		Title:   "Commute logged",
		Message: "Cycle for 5 days: 10 kg CO2 saved, 50 points earned",
	}}, notifier.Notifications())

	_, err = api.UserStats(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits("GET /api/user/stats"))
}

func TestFailedMutationOnlyNotifies(t *testing.T) {
	srv := newFakeServer(t)
	notifier := &RecordingNotifier{}
	api := newTestAPI(t, srv, notifier)
	ctx := context.Background()

	_, err := api.UserStats(ctx, "")
	require.NoError(t, err)

	_, err = api.RedeemReward(ctx, "", "r1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, 40, apiErr.PointsNeeded)

	assert.Equal(t, []Notification{{
		Kind:    "error",
		Title:   "Could not redeem reward",
		Message: "You need 40 more points to redeem this reward",
	}}, notifier.Notifications())
	assert.True(t, api.Cache().State(Key(ResourceStats)).Cached, "failed writes invalidate nothing")
	assert.Equal(t, 1, srv.Hits("POST /api/rewards/r1/redeem"), "no retries")
}

func TestCSRFTokenFetchedOnce(t *testing.T) {
	srv := newFakeServer(t)
	api := newTestAPI(t, srv, &RecordingNotifier{})
	ctx := context.Background()

	in := model.CommuteLogInput{CommuteType: model.CommuteWalk, DaysLogged: 1, DistanceKm: 2, WeekStart: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)}
	_, err := api.LogCommute(ctx, "", in)
	require.NoError(t, err)
	_, err = api.LogCommute(ctx, "", in)
	require.NoError(t, err)

	assert.Equal(t, 1, srv.Hits("GET /api/auth/csrf"))
	assert.Equal(t, 2, srv.Hits("POST /api/commutes"))

	api.Client().ResetCookies()
	_, err = api.LogCommute(ctx, "", in)
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Hits("GET /api/auth/csrf"))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"points needed", &APIError{Status: 400, Message: "Not enough points to redeem this reward", PointsNeeded: 25}, "You need 25 more points to redeem this reward"},
		{"message", &APIError{Status: 409, Message: "Commute already logged"}, "Commute already logged"},
		{"raw body", &APIError{Status: 502, Body: "bad gateway"}, "bad gateway"},
		{"status text", &APIError{Status: 503}, "Service Unavailable"},
		{"wrapped", fmt.Errorf("join: %w", &APIError{Status: 404, Message: "Challenge not found"}), "Challenge not found"},
		{"transport", errors.New("dial tcp: connection refused"), "dial tcp: connection refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.err))
		})
	}
}

func TestDecodeAPIError(t *testing.T) {
	err := decodeAPIError(http.StatusBadRequest, []byte(`{"message":"Not enough points to redeem this reward","pointsNeeded":12}`))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Not enough points to redeem this reward", apiErr.Message)
	assert.Equal(t, 12, apiErr.PointsNeeded)

	err = decodeAPIError(http.StatusBadGateway, []byte("upstream down\n"))
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.Message)
	assert.Equal(t, "upstream down", apiErr.Body)
	assert.Equal(t, "502: upstream down", err.Error())
}
