package client

import (
	"net/url"
	"strings"
)

// Cached resources. A key is a resource plus its sorted query parameters.
const (
	ResourceCurrentWeek    = "commutes/current"
	ResourceHistory        = "commutes"
	ResourceStats          = "user/stats"
	ResourceChallenges     = "challenges"
	ResourceUserChallenges = "user/challenges"
	ResourceRewards        = "rewards"
	ResourceRedemptions    = "user/redemptions"
	ResourceLeaderboard    = "leaderboard"
)

// Key builds a stable cache key from a resource and name/value pairs.
// Empty values are left out, so Key("rewards", "userId", "") == "rewards".
func Key(resource string, params ...string) string {
	values := url.Values{}
	for i := 0; i+1 < len(params); i += 2 {
		if params[i+1] != "" {
			values.Set(params[i], params[i+1])
		}
	}

	if len(values) == 0 {
		return resource
	}
	return resource + "?" + values.Encode()
}

func resourceOf(key string) string {
	resource, _, _ := strings.Cut(key, "?")
	return resource
}
