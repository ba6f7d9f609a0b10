package repository

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/trakapp/trak/internal/model"
)

// memoryUserRepository keeps users in a map keyed by id. It backs
// USER_STORE=memory and returns copies so callers never share state.
type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[string]*model.User)}
}

func (r *memoryUserRepository) Create(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return ErrDuplicateUsername
		}
		if existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}

	stored := cloneUser(user)
	stored.CreatedAt = stored.CreatedAt.UTC()
	stored.UpdatedAt = stored.UpdatedAt.UTC()
	r.users[user.ID] = stored
	return nil
}

func (r *memoryUserRepository) ByID(id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (r *memoryUserRepository) ByUsername(username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *memoryUserRepository) ByEmail(email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *memoryUserRepository) find(match func(*model.User) bool) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if match(user) {
			return cloneUser(user), nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryUserRepository) Update(id string, update model.UserUpdate) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if update.IsEmpty() {
		return cloneUser(user), nil
	}

	update.Apply(user)
	user.UpdatedAt = time.Now().UTC()
	return cloneUser(user), nil
}

func (r *memoryUserRepository) AddPoints(id string, delta int) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	user.Points += delta
	user.UpdatedAt = time.Now().UTC()
	return cloneUser(user), nil
}

func (r *memoryUserRepository) SpendPoints(id string, cost int) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if user.Points < cost {
		return nil, ErrNotEnoughPoints
	}
	user.Points -= cost
	user.UpdatedAt = time.Now().UTC()
	return cloneUser(user), nil
}

func (r *memoryUserRepository) Leaderboard(limit int) ([]model.LeaderboardEntry, error) {
	r.mu.RLock()
	ranked := r.ranked()
	r.mu.RUnlock()

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	entries := make([]model.LeaderboardEntry, len(ranked))
	for i, user := range ranked {
		entries[i] = model.LeaderboardEntry{
			Rank:     i + 1,
			UserID:   user.ID,
			Username: user.Username,
			Name:     user.Name,
			Points:   user.Points,
		}
	}
	return entries, nil
}

func (r *memoryUserRepository) Rank(id string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.users[id]; !ok {
		return 0, ErrUserNotFound
	}
	for i, user := range r.ranked() {
		if user.ID == id {
			return i + 1, nil
		}
	}
	return 0, ErrUserNotFound
}

// ranked must be called with the lock held.
func (r *memoryUserRepository) ranked() []*model.User {
	users := make([]*model.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Points != users[j].Points {
			return users[i].Points > users[j].Points
		}
		return users[i].Username < users[j].Username
	})
	return users
}

func cloneUser(user *model.User) *model.User {
	clone := *user
	if user.PasswordHash != nil {
		hash := *user.PasswordHash
		clone.PasswordHash = &hash
	}
	return &clone
}
