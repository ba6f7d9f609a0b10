package handler

import (
	"net/http"
	"time"

	"github.com/trakapp/trak/internal/ctxkeys"
	"github.com/trakapp/trak/internal/model"
	"github.com/trakapp/trak/internal/service"
)

type ChallengeHandler struct {
	challengeService *service.ChallengeService
	now              func() time.Time
}

func NewChallengeHandler(challengeService *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
		now:              time.Now,
	}
}

func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	challenges, err := h.challengeService.List(ctxkeys.SubjectID(r.Context()))
	if err != nil {
		writeError(w, r, err, "Failed to load challenges")
		return
	}

	writeJSON(w, http.StatusOK, nonNil(challenges))
}

func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ChallengeInput
	if !decodeJSON(w, r, &req) {
		return
	}

	challenge, err := h.challengeService.Create(ctxkeys.User(r.Context()), req, h.now())
	if err != nil {
		writeError(w, r, err, "Failed to create challenge")
		return
	}

	writeJSON(w, http.StatusCreated, challenge)
}

func (h *ChallengeHandler) Join(w http.ResponseWriter, r *http.Request) {
	uc, err := h.challengeService.Join(ctxkeys.SubjectID(r.Context()), r.PathValue("id"), h.now())
	if err != nil {
		writeError(w, r, err, "Failed to join challenge")
		return
	}

	writeJSON(w, http.StatusCreated, uc)
}

func (h *ChallengeHandler) UserChallenges(w http.ResponseWriter, r *http.Request) {
	ucs, err := h.challengeService.UserChallenges(ctxkeys.SubjectID(r.Context()))
	if err != nil {
		writeError(w, r, err, "Failed to load your challenges")
		return
	}

	writeJSON(w, http.StatusOK, nonNil(ucs))
}
