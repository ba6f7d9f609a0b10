package handler

import (
	"net/http"
	"strconv"

	"github.com/trakapp/trak/internal/ctxkeys"
	"github.com/trakapp/trak/internal/service"
)

type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

func (h *LeaderboardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeMessage(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	board, err := h.leaderboardService.Top(ctxkeys.SubjectID(r.Context()), limit)
	if err != nil {
		writeError(w, r, err, "Failed to load leaderboard")
		return
	}

	writeJSON(w, http.StatusOK, board)
}
