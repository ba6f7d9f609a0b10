package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/trakapp/trak/internal/ctxkeys"
	"github.com/trakapp/trak/internal/repository"
	"github.com/trakapp/trak/internal/service"
)

const maxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every non-2xx response.
type ErrorBody struct {
	Message      string `json:"message"`
	PointsNeeded int    `json:"pointsNeeded,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorBody{Message: message})
}

// decodeJSON reads a single JSON object, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return false
	}
	return true
}

// knownErrors maps sentinel errors to a status; the sentinel's text is the message.
var knownErrors = []struct {
	err    error
	status int
}{
	{service.ErrInvalidCurrentPassword, http.StatusBadRequest},
	{service.ErrResetTokenInvalid, http.StatusBadRequest},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{repository.ErrUserNotFound, http.StatusNotFound},
	{repository.ErrChallengeNotFound, http.StatusNotFound},
	{repository.ErrRewardNotFound, http.StatusNotFound},
	{service.ErrUsernameTaken, http.StatusConflict},
	{service.ErrEmailAlreadyExists, http.StatusConflict},
	{service.ErrCommuteAlreadyLogged, http.StatusConflict},
	{service.ErrChallengeEnded, http.StatusConflict},
	{repository.ErrAlreadyJoined, http.StatusConflict},
	{repository.ErrRewardSoldOut, http.StatusConflict},
	{service.ErrStorageDisabled, http.StatusServiceUnavailable},
}

// writeError maps service and repository errors to a status code in one place.
// Unexpected errors are logged and reported as 500 with fallback as message.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var pointsErr *service.InsufficientPointsError
	if errors.As(err, &pointsErr) {
		writeJSON(w, http.StatusBadRequest, ErrorBody{
			Message:      "Not enough points to redeem this reward",
			PointsNeeded: pointsErr.PointsNeeded,
		})
		return
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		writeMessage(w, http.StatusBadRequest, capitalize(validationErr.Error()))
		return
	}

	for _, known := range knownErrors {
		if errors.Is(err, known.err) {
			writeMessage(w, known.status, capitalize(known.err.Error()))
			return
		}
	}

	attrs := []any{"error", err, "path", r.URL.Path, "request_id", ctxkeys.RequestID(r.Context())}
	if user := ctxkeys.User(r.Context()); user != nil {
		attrs = append(attrs, "user_id", user.ID)
	}
	slog.Error(fallback, attrs...)
	writeMessage(w, http.StatusInternalServerError, fallback)
}

func capitalize(msg string) string {
	if msg == "" {
		return msg
	}
	if c := msg[0]; c >= 'a' && c <= 'z' {
		msg = string(c-'a'+'A') + msg[1:]
	}
	return msg
}
