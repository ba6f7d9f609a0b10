package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/trakapp/trak/internal/model"
)

// HintStore persists the last known user between runs, so a front end
// can show who was logged in before the profile request returns.
type HintStore interface {
	Load() (*model.User, error)
	Save(user *model.User) error
	Clear() error
}

// Session is the authentication context of one client.
type Session struct {
	api   *API
	hints HintStore

	initOnce sync.Once

	mu      sync.RWMutex
	user    *model.User
	loading bool
}

func NewSession(api *API, hints HintStore) *Session {
	if hints == nil {
		hints = &MemoryHintStore{}
	}
	return &Session{
		api:     api,
		hints:   hints,
		loading: true,
	}
}

func (s *Session) API() *API {
	return s.api
}

// Init fetches the profile once per session; later calls return the
// current user without a request. A failed fetch leaves no user.
func (s *Session) Init(ctx context.Context) *model.User {
	s.initOnce.Do(func() {
		user, err := s.api.Profile(ctx)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
				s.clearHint()
			} else {
				slog.Debug("session profile fetch failed", "error", err)
			}
			user = nil
		}

		s.mu.Lock()
		s.user = user
		s.loading = false
		s.mu.Unlock()

		if user != nil {
			s.saveHint(user)
		}
	})

	return s.User()
}

func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Loading is true until Init has finished.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Hint returns the persisted user from a previous run, if any.
func (s *Session) Hint() *model.User {
	user, err := s.hints.Load()
	if err != nil {
		slog.Debug("session hint unavailable", "error", err)
		return nil
	}
	return user
}

// SetCurrentUser replaces the session user and persists it as the hint.
// A nil user clears both.
func (s *Session) SetCurrentUser(user *model.User) {
	s.mu.Lock()
	s.user = user
	s.loading = false
	s.mu.Unlock()

	if user == nil {
		s.clearHint()
		return
	}
	s.saveHint(user)
}

func (s *Session) Login(ctx context.Context, identifier, password string) (*model.User, error) {
	user, err := s.api.Login(ctx, identifier, password)
	if err != nil {
		return nil, err
	}
	s.startAs(user)
	return user, nil
}

func (s *Session) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	user, err := s.api.Signup(ctx, in)
	if err != nil {
		return nil, err
	}
	s.startAs(user)
	return user, nil
}

// ResetPassword redeems an emailed reset token; the server logs the user in.
func (s *Session) ResetPassword(ctx context.Context, token, newPassword string) (*model.User, error) {
	user, err := s.api.ResetPassword(ctx, token, newPassword)
	if err != nil {
		return nil, err
	}
	s.startAs(user)
	return user, nil
}

func (s *Session) startAs(user *model.User) {
	// Cached reads belong to whoever was logged in before
	s.api.cache.Clear()
	s.SetCurrentUser(user)
}

// UpdateUser sends a partial update and swaps in the returned user.
func (s *Session) UpdateUser(ctx context.Context, in UserUpdate) (*model.User, error) {
	user, err := s.api.UpdateUser(ctx, in)
	if err != nil {
		return nil, err
	}
	s.SetCurrentUser(user)
	return user, nil
}

func (s *Session) ChangePassword(ctx context.Context, current, next string) (*model.User, error) {
	user, err := s.api.ChangePassword(ctx, current, next)
	if err != nil {
		return nil, err
	}
	s.SetCurrentUser(user)
	return user, nil
}

// Logout tells the server, then resets local state whatever the server said.
// The server error is returned for diagnostics only.
func (s *Session) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	if err != nil {
		slog.Warn("logout request failed, clearing local session anyway", "error", err)
	}

	s.api.cache.Clear()
	s.api.client.ResetCookies()
	s.SetCurrentUser(nil)

	return err
}

func (s *Session) saveHint(user *model.User) {
	err := s.hints.Save(user)
	if err != nil {
		slog.Warn("failed to persist session hint", "error", err)
	}
}

func (s *Session) clearHint() {
	err := s.hints.Clear()
	if err != nil {
		slog.Warn("failed to clear session hint", "error", err)
	}
}

type sessionKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom panics when ctx carries no session: a caller outside a
// session is a wiring bug, not a runtime condition.
func SessionFrom(ctx context.Context) *Session {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	if !ok || s == nil {
		panic("client: no session in context; wrap it with WithSession")
	}
	return s
}

// MemoryHintStore keeps the hint for the life of the process.
type MemoryHintStore struct {
	mu   sync.Mutex
	user *model.User
}

func (m *MemoryHintStore) Load() (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil, nil
	}
	user := *m.user
	return &user, nil
}

func (m *MemoryHintStore) Save(user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	m.user = &copied
	return nil
}

func (m *MemoryHintStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	return nil
}

// FileHintStore keeps the hint as JSON in a file readable only by its owner.
type FileHintStore struct {
	Path string
}

func (f FileHintStore) Load() (*model.User, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var user model.User
	err = json.Unmarshal(data, &user)
	if err != nil {
		return nil, fmt.Errorf("corrupt session hint %s: %w", f.Path, err)
	}
	return &user, nil
}

func (f FileHintStore) Save(user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(f.Path), 0o700)
	if err != nil {
		return err
	}

	tmp := f.Path + ".tmp"
	err = os.WriteFile(tmp, data, 0o600)
	if err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}

func (f FileHintStore) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
