package handler

import (
	"net/http"
	"time"

	"github.com/trakapp/trak/internal/ctxkeys"
	"github.com/trakapp/trak/internal/service"
)

type UserHandler struct {
	userService   *service.UserService
	authService   *service.AuthService
	rewardService *service.RewardService
	now           func() time.Time
}

func NewUserHandler(userService *service.UserService, authService *service.AuthService, rewardService *service.RewardService) *UserHandler {
	return &UserHandler{
		userService:   userService,
		authService:   authService,
		rewardService: rewardService,
		now:           time.Now,
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ctxkeys.User(r.Context()))
}

// Update applies a partial update of the caller's onboarding flags and password.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req service.UpdateInput
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.userService.UpdateFlags(user.ID, req)
	if err != nil {
		writeError(w, r, err, "Failed to update user")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.authService.ChangePassword(user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(w, r, err, "Failed to change password")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.userService.Stats(ctxkeys.SubjectID(r.Context()), h.now())
	if err != nil {
		writeError(w, r, err, "Failed to load stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *UserHandler) Redemptions(w http.ResponseWriter, r *http.Request) {
	redemptions, err := h.rewardService.Redemptions(ctxkeys.SubjectID(r.Context()))
	if err != nil {
		writeError(w, r, err, "Failed to load redemptions")
		return
	}

	writeJSON(w, http.StatusOK, nonNil(redemptions))
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
