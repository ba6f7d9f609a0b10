package client

import (
	"context"
	"fmt"

	"github.com/trakapp/trak/internal/model"
)

// Invalidation sets: what each mutation makes stale.
var (
	logCommuteInvalidates      = []string{ResourceCurrentWeek, ResourceHistory, ResourceStats, ResourceUserChallenges, ResourceLeaderboard}
	joinChallengeInvalidates   = []string{ResourceChallenges, ResourceUserChallenges}
	createChallengeInvalidates = []string{ResourceChallenges}
	createRewardInvalidates    = []string{ResourceRewards}
	redeemRewardInvalidates    = []string{ResourceRewards, ResourceRedemptions, ResourceStats, ResourceLeaderboard}
)

// titles heads the notifications of one mutation.
type titles struct {
	ok     string
	failed string
}

// mutate sends a write. On success it invalidates first and then notifies,
// so anything reacting to the notification reads fresh data. On failure it
// only notifies. Nothing is retried.
func mutate[T any](ctx context.Context, a *API, t titles, invalidates []string, send func(context.Context) (T, error), success func(T) string) (T, error) {
	out, err := send(ctx)
	if err != nil {
		a.notifier.Error(t.failed, ErrorMessage(err))
		var zero T
		return zero, err
	}

	a.cache.Invalidate(invalidates...)
	a.notifier.Success(t.ok, success(out))
	return out, nil
}

func post[T any](a *API, path, userID string, body any) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		var out T
		err := a.client.Post(ctx, path, subjectQuery(userID), body, &out)
		return out, err
	}
}

func (a *API) LogCommute(ctx context.Context, userID string, in model.CommuteLogInput) (*model.CommuteLog, error) {
	return mutate(ctx, a, titles{"Commute logged", "Could not log commute"}, logCommuteInvalidates,
		post[*model.CommuteLog](a, "/api/commutes", userID, in),
		func(log *model.CommuteLog) string {
			return fmt.Sprintf("%s for %d days: %d kg CO2 saved, %d points earned",
				log.CommuteType.Label(), log.DaysLogged, log.CO2Saved, log.PointsEarned)
		})
}

func (a *API) JoinChallenge(ctx context.Context, userID, challengeID string) (*model.UserChallenge, error) {
	return mutate(ctx, a, titles{"Challenge joined", "Could not join challenge"}, joinChallengeInvalidates,
		post[*model.UserChallenge](a, "/api/challenges/"+challengeID+"/join", userID, nil),
		func(uc *model.UserChallenge) string {
			return fmt.Sprintf("You joined %q", uc.Challenge.Title)
		})
}

func (a *API) CreateChallenge(ctx context.Context, in model.ChallengeInput) (*model.Challenge, error) {
	return mutate(ctx, a, titles{"Challenge created", "Could not create challenge"}, createChallengeInvalidates,
		post[*model.Challenge](a, "/api/challenges", "", in),
		func(c *model.Challenge) string {
			return fmt.Sprintf("%q is open until %s", c.Title, c.EndDate.Format("Jan 2, 2006"))
		})
}

func (a *API) CreateReward(ctx context.Context, in model.RewardInput) (*model.Reward, error) {
	return mutate(ctx, a, titles{"Reward created", "Could not create reward"}, createRewardInvalidates,
		post[*model.Reward](a, "/api/rewards", "", in),
		func(r *model.Reward) string {
			return fmt.Sprintf("%q costs %d points", r.Title, r.CostPoints)
		})
}

func (a *API) RedeemReward(ctx context.Context, userID, rewardID string) (*model.UserRedemption, error) {
	return mutate(ctx, a, titles{"Reward redeemed", "Could not redeem reward"}, redeemRewardInvalidates,
		post[*model.UserRedemption](a, "/api/rewards/"+rewardID+"/redeem", userID, nil),
		func(r *model.UserRedemption) string {
			return fmt.Sprintf("You redeemed %q for %d points", r.RewardTitle, r.PointsSpent)
		})
}

// UserUpdate is a partial update of the caller's flags and password.
type UserUpdate struct {
	IsNewUser           *bool   `json:"is_new_user,omitempty"`
	NeedsPasswordChange *bool   `json:"needs_password_change,omitempty"`
	Password            *string `json:"password,omitempty"`
}

// UpdateUser touches no cached query; the session replaces its user instead.
func (a *API) UpdateUser(ctx context.Context, in UserUpdate) (*model.User, error) {
	return mutate(ctx, a, titles{"Profile updated", "Could not update profile"}, nil,
		func(ctx context.Context) (*model.User, error) {
			var user model.User
			err := a.client.Patch(ctx, "/api/user", nil, in, &user)
			if err != nil {
				return nil, err
			}
			return &user, nil
		},
		func(*model.User) string {
			return "Your changes were saved"
		})
}

func (a *API) ChangePassword(ctx context.Context, current, next string) (*model.User, error) {
	body := map[string]string{"current_password": current, "new_password": next}
	return mutate(ctx, a, titles{"Password changed", "Could not change password"}, nil,
		post[*model.User](a, "/api/user/password", "", body),
		func(*model.User) string {
			return "Your new password is active"
		})
}

// ExportCommutes returns a download link for the user's history.
func (a *API) ExportCommutes(ctx context.Context, userID string) (string, error) {
	type exportResponse struct {
		URL string `json:"url"`
	}
	out, err := mutate(ctx, a, titles{"Export ready", "Could not export commutes"}, nil,
		post[exportResponse](a, "/api/commutes/export", userID, nil),
		func(exportResponse) string {
			return "Your commute history is ready to download"
		})
	return out.URL, err
}

func (a *API) Login(ctx context.Context, identifier, password string) (*model.User, error) {
	var user model.User
	err := a.client.Post(ctx, "/api/auth/login", nil, map[string]string{
		"identifier": identifier,
		"password":   password,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (a *API) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	var user model.User
	err := a.client.Post(ctx, "/api/auth/signup", nil, in, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ForgotPassword asks the server to email a reset token.
func (a *API) ForgotPassword(ctx context.Context, identifier string) error {
	return a.client.Post(ctx, "/api/auth/password/forgot", nil, map[string]string{
		"identifier": identifier,
	}, nil)
}

func (a *API) ResetPassword(ctx context.Context, token, newPassword string) (*model.User, error) {
	var user model.User
	err := a.client.Post(ctx, "/api/auth/password/reset", nil, map[string]string{
		"token":        token,
		"new_password": newPassword,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *API) Logout(ctx context.Context) error {
	return a.client.Post(ctx, "/api/auth/logout", nil, nil, nil)
}
