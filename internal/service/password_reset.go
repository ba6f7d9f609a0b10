package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/trakapp/trak/internal/model"
	"github.com/trakapp/trak/internal/repository"
	"github.com/trakapp/trak/internal/validation"
)

var ErrResetTokenInvalid = errors.New("reset token is invalid or has expired")

// PasswordResetService lets a user who forgot their password set a new one
// through a single use token sent by email.
type PasswordResetService struct {
	userRepository  repository.UserRepository
	tokenRepository repository.TokenRepository
	authService     *AuthService
	emailService    *EmailService
	expiry          time.Duration
}

func NewPasswordResetService(
	userRepository repository.UserRepository,
	tokenRepository repository.TokenRepository,
	authService *AuthService,
	emailService *EmailService,
	expiry time.Duration,
) *PasswordResetService {
	return &PasswordResetService{
		userRepository:  userRepository,
		tokenRepository: tokenRepository,
		authService:     authService,
		emailService:    emailService,
		expiry:          expiry,
	}
}

// Request emails a reset token. Unknown accounts succeed silently so the
// endpoint does not reveal who is registered.
func (s *PasswordResetService) Request(ctx context.Context, identifier string, now time.Time) error {
	identifier = strings.TrimSpace(strings.ToLower(identifier))

	var user *model.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.userRepository.ByEmail(identifier)
	} else {
		user, err = s.userRepository.ByUsername(identifier)
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		slog.Info("password reset requested for unknown account")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := s.issue(user.ID, now)
	if err != nil {
		return err
	}

	err = s.emailService.SendPasswordResetEmail(ctx, user.Email, user.Name, token, s.expiry)
	if err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	slog.Info("password reset requested", "user_id", user.ID)
	return nil
}

// issue replaces any outstanding reset token for userID and returns the new secret.
func (s *PasswordResetService) issue(userID string, now time.Time) (string, error) {
	err := s.tokenRepository.DeleteUnused(userID, model.TokenTypePasswordReset)
	if err != nil {
		return "", fmt.Errorf("failed to delete old reset tokens: %w", err)
	}

	secret := make([]byte, 32)
	_, err = rand.Read(secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(secret)

	err = s.tokenRepository.Create(&model.Token{
		UserID:    userID,
		Type:      model.TokenTypePasswordReset,
		TokenHash: hashToken(token),
		ExpiresAt: now.Add(s.expiry),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}

	return token, nil
}

// Reset consumes token and stores newPassword. The needs_password_change
// flag is cleared since the user just chose this password.
func (s *PasswordResetService) Reset(token, newPassword string, now time.Time) (*model.User, error) {
	err := validation.ValidatePassword(newPassword)
	if err != nil {
		return nil, invalid(err)
	}

	consumed, err := s.tokenRepository.Consume(hashToken(token), model.TokenTypePasswordReset, now)
	if errors.Is(err, repository.ErrTokenNotFound) {
		return nil, ErrResetTokenInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume reset token: %w", err)
	}

	hash, err := s.authService.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cleared := false
	user, err := s.userRepository.Update(consumed.UserID, model.UserUpdate{
		PasswordHash:        &hash,
		NeedsPasswordChange: &cleared,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password reset", "user_id", user.ID)
	return user, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
