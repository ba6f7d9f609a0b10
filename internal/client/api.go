package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/trakapp/trak/internal/model"
)

// API exposes the server's endpoints as cached queries and notifying mutations.
type API struct {
	client   *Client
	cache    *Cache
	notifier Notifier
}

func NewAPI(client *Client, cache *Cache, notifier Notifier) *API {
	if cache == nil {
		cache = NewCache()
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &API{
		client:   client,
		cache:    cache,
		notifier: notifier,
	}
}

func (a *API) Client() *Client {
	return a.client
}

func (a *API) Cache() *Cache {
	return a.cache
}

func subjectQuery(userID string) url.Values {
	if userID == "" {
		return nil
	}
	return url.Values{"userId": {userID}}
}

type validator interface {
	Validate() error
}

func validateAll[T validator](items []T) error {
	for _, item := range items {
		err := item.Validate()
		if err != nil {
			return err
		}
	}
	return nil
}

// query reads key through the cache, decoding a GET of path into T.
func query[T any](ctx context.Context, a *API, key, path string, params url.Values, check func(T) error) (T, error) {
	value, err := a.cache.Get(ctx, key, func(ctx context.Context) (any, error) {
		var out T
		err := a.client.Get(ctx, path, params, &out)
		if err != nil {
			return nil, err
		}
		err = check(out)
		if err != nil {
			return nil, fmt.Errorf("malformed %s response: %w", path, err)
		}
		return out, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

// Profile fetches the session user without caching.
func (a *API) Profile(ctx context.Context) (*model.User, error) {
	var user model.User
	err := a.client.Get(ctx, "/api/user/profile", nil, &user)
	if err != nil {
		return nil, err
	}
	err = user.Validate()
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *API) CurrentWeekCommutes(ctx context.Context, userID string) ([]*model.CommuteLog, error) {
	return query(ctx, a, Key(ResourceCurrentWeek, "userId", userID), "/api/commutes/current", subjectQuery(userID), validateAll[*model.CommuteLog])
}

func (a *API) CommuteHistory(ctx context.Context, userID string) ([]*model.CommuteLog, error) {
	return query(ctx, a, Key(ResourceHistory, "userId", userID), "/api/commutes", subjectQuery(userID), validateAll[*model.CommuteLog])
}

func (a *API) UserStats(ctx context.Context, userID string) (*model.UserStats, error) {
	return query(ctx, a, Key(ResourceStats, "userId", userID), "/api/user/stats", subjectQuery(userID), (*model.UserStats).Validate)
}

func (a *API) Challenges(ctx context.Context, userID string) ([]*model.Challenge, error) {
	return query(ctx, a, Key(ResourceChallenges, "userId", userID), "/api/challenges", subjectQuery(userID), validateAll[*model.Challenge])
}

func (a *API) UserChallenges(ctx context.Context, userID string) ([]*model.UserChallenge, error) {
	return query(ctx, a, Key(ResourceUserChallenges, "userId", userID), "/api/user/challenges", subjectQuery(userID), validateAll[*model.UserChallenge])
}

func (a *API) Rewards(ctx context.Context, userID string) ([]*model.Reward, error) {
	return query(ctx, a, Key(ResourceRewards, "userId", userID), "/api/rewards", subjectQuery(userID), validateAll[*model.Reward])
}

func (a *API) Redemptions(ctx context.Context, userID string) ([]*model.UserRedemption, error) {
	return query(ctx, a, Key(ResourceRedemptions, "userId", userID), "/api/user/redemptions", subjectQuery(userID), validateAll[*model.UserRedemption])
}

// Leaderboard uses the server default size when limit is zero.
func (a *API) Leaderboard(ctx context.Context, userID string, limit int) (*model.Leaderboard, error) {
	params := subjectQuery(userID)
	limitParam := ""
	if limit > 0 {
		limitParam = strconv.Itoa(limit)
		if params == nil {
			params = url.Values{}
		}
		params.Set("limit", limitParam)
	}

	key := Key(ResourceLeaderboard, "userId", userID, "limit", limitParam)
	return query(ctx, a, key, "/api/leaderboard", params, (*model.Leaderboard).Validate)
}
