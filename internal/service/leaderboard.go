package service

import (
	"fmt"

	"github.com/trakapp/trak/internal/impact"
	"github.com/trakapp/trak/internal/model"
	"github.com/trakapp/trak/internal/repository"
)

const maxLeaderboardLimit = 100

type LeaderboardService struct {
	userRepository repository.UserRepository
	defaultLimit   int
}

func NewLeaderboardService(userRepository repository.UserRepository, defaultLimit int) *LeaderboardService {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &LeaderboardService{
		userRepository: userRepository,
		defaultLimit:   defaultLimit,
	}
}

// Top returns the highest point totals and userID's rank, which is
// looked up separately when the user falls outside the top entries.
func (s *LeaderboardService) Top(userID string, limit int) (*model.Leaderboard, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	entries, err := s.userRepository.Leaderboard(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}

	rank := impact.FindUserRank(entries, userID)
	if rank == 0 && userID != "" {
		rank, err = s.userRepository.Rank(userID)
		if err != nil {
			return nil, fmt.Errorf("failed to rank user: %w", err)
		}
	}

	return &model.Leaderboard{
		Entries:  entries,
		UserRank: rank,
	}, nil
}
