package handler

import (
	"net/http"
	"time"

	"github.com/trakapp/trak/internal/ctxkeys"
	"github.com/trakapp/trak/internal/model"
	"github.com/trakapp/trak/internal/service"
)

type RewardHandler struct {
	rewardService *service.RewardService
	now           func() time.Time
}

func NewRewardHandler(rewardService *service.RewardService) *RewardHandler {
	return &RewardHandler{
		rewardService: rewardService,
		now:           time.Now,
	}
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.rewardService.List()
	if err != nil {
		writeError(w, r, err, "Failed to load rewards")
		return
	}

	writeJSON(w, http.StatusOK, nonNil(rewards))
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.RewardInput
	if !decodeJSON(w, r, &req) {
		return
	}

	reward, err := h.rewardService.Create(ctxkeys.User(r.Context()), req, h.now())
	if err != nil {
		writeError(w, r, err, "Failed to create reward")
		return
	}

	writeJSON(w, http.StatusCreated, reward)
}

func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	redemption, err := h.rewardService.Redeem(r.Context(), ctxkeys.SubjectID(r.Context()), r.PathValue("id"), h.now())
	if err != nil {
		writeError(w, r, err, "Failed to redeem reward")
		return
	}

	writeJSON(w, http.StatusCreated, redemption)
}
