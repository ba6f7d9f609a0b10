package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/trakapp/trak/internal/ctxkeys"
	"github.com/trakapp/trak/internal/model"
	"github.com/trakapp/trak/internal/service"
)

type AuthHandler struct {
	authService    *service.AuthService
	passwordResets *service.PasswordResetService
}

func NewAuthHandler(authService *service.AuthService, passwordResets *service.PasswordResetService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		passwordResets: passwordResets,
	}
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// CSRF hands the double-submit token to clients that cannot read cookies.
func (h *AuthHandler) CSRF(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"csrf_token": ctxkeys.CSRFToken(r.Context()),
	})
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		writeError(w, r, err, "Failed to create account")
		return
	}

	if !h.startSession(w, r, user) {
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Login(req.Identifier, req.Password)
	if err != nil {
		writeError(w, r, err, "Failed to log in")
		return
	}

	if !h.startSession(w, r, user) {
		return
	}

	slog.Info("user logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *model.User) bool {
	token, expiry, err := h.authService.GenerateJWT(user)
	if err != nil {
		writeError(w, r, err, "Failed to start session")
		return false
	}

	h.authService.SetJWTCookie(w, token, expiry)
	return true
}

type forgotPasswordRequest struct {
	Identifier string `json:"identifier"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ForgotPassword answers 202 whether or not the account exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.passwordResets.Request(r.Context(), req.Identifier, time.Now())
	if err != nil {
		writeError(w, r, err, "Failed to send reset email")
		return
	}

	writeMessage(w, http.StatusAccepted, "If that account exists, a reset token is on its way")
}

// ResetPassword sets the new password and logs the user in.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.passwordResets.Reset(req.Token, req.NewPassword, time.Now())
	if err != nil {
		writeError(w, r, err, "Failed to reset password")
		return
	}

	if !h.startSession(w, r, user) {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)

	if user := ctxkeys.User(r.Context()); user != nil {
		slog.Info("user logged out", "user_id", user.ID)
	}
	w.WriteHeader(http.StatusNoContent)
}
