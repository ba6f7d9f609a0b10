package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trakapp/trak/internal/db/dbtest"
	"github.com/trakapp/trak/internal/markdown"
	"github.com/trakapp/trak/internal/metrics"
	"github.com/trakapp/trak/internal/model"
	"github.com/trakapp/trak/internal/repository"
)

const testPassword = "correct-horse-battery"

// weekOf is a Sunday, the start of a commute week.
var weekOf = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

type memoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (s *memoryStorage) Save(_ context.Context, key, contentType string, body io.Reader) error {
	var buf bytes.Buffer
	_, err := io.Copy(&buf, body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = buf.Bytes()
	s.types[key] = contentType
	return nil
}

func (s *memoryStorage) PresignedURL(_ context.Context, key string) (string, error) {
	return fmt.Sprintf("https://storage.test/%s?signed=1", key), nil
}

type harness struct {
	users      repository.UserRepository
	commutes   repository.CommuteRepository
	challenges repository.ChallengeRepository
	rewards    repository.RewardRepository
	tokens     repository.TokenRepository
	storage    *memoryStorage

	auth        *AuthService
	resets      *PasswordResetService
	user        *UserService
	commute     *CommuteService
	challenge   *ChallengeService
	reward      *RewardService
	leaderboard *LeaderboardService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	conn := dbtest.New(t)
	m := metrics.New()
	email := NewEmailService("", "noreply@example.com", "http://localhost:8090", "Trak", true)

	h := &harness{
		users:      repository.NewUserRepository(conn),
		commutes:   repository.NewCommuteRepository(conn),
		challenges: repository.NewChallengeRepository(conn),
		rewards:    repository.NewRewardRepository(conn),
		tokens:     repository.NewTokenRepository(conn),
		storage:    newMemoryStorage(),
	}

	h.auth = NewAuthService(h.users, email, "test-secret", time.Hour, false, []string{"Root"})
	h.resets = NewPasswordResetService(h.users, h.tokens, h.auth, email, time.Hour)
	h.user = NewUserService(h.users, h.commutes, h.challenges, h.auth)
	h.commute = NewCommuteService(h.commutes, h.users, h.challenges, email, h.storage, m)
	h.challenge = NewChallengeService(h.challenges, markdown.NewParser(), m)
	h.reward = NewRewardService(h.rewards, h.users, email, m)
	h.leaderboard = NewLeaderboardService(h.users, 3)

	return h
}

func (h *harness) signup(t *testing.T, username string) *model.User {
	t.Helper()

	user, err := h.auth.Signup(context.Background(), SignupInput{
		Username: username,
		Email:    username + "@example.com",
		Name:     username,
		Password: testPassword,
	})
	require.NoError(t, err)
	return user
}

func (h *harness) grant(t *testing.T, userID string, points int) {
	t.Helper()

	_, err := h.users.AddPoints(userID, points)
	require.NoError(t, err)
}
