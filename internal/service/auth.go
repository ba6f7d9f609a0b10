package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/trakapp/trak/internal/model"
	"github.com/trakapp/trak/internal/repository"
	"github.com/trakapp/trak/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

const AuthCookieName = "auth_token"

var (
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrEmailAlreadyExists     = errors.New("email already exists")
	ErrUsernameTaken          = errors.New("username is already taken")
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
	ErrInvalidToken           = errors.New("invalid token")
)

type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type AuthService struct {
	userRepository repository.UserRepository
	emailService   *EmailService
	jwtSecret      string
	jwtExpiry      time.Duration
	secureCookies  bool
	adminUsernames []string
}

func NewAuthService(
	userRepository repository.UserRepository,
	emailService *EmailService,
	jwtSecret string,
	jwtExpiry time.Duration,
	secureCookies bool,
	adminUsernames []string,
) *AuthService {
	admins := make([]string, 0, len(adminUsernames))
	for _, name := range adminUsernames {
		admins = append(admins, strings.ToLower(strings.TrimSpace(name)))
	}

	return &AuthService{
		userRepository: userRepository,
		emailService:   emailService,
		jwtSecret:      jwtSecret,
		jwtExpiry:      jwtExpiry,
		secureCookies:  secureCookies,
		adminUsernames: admins,
	}
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	username := strings.TrimSpace(strings.ToLower(in.Username))
	email := strings.TrimSpace(strings.ToLower(in.Email))
	name := strings.TrimSpace(in.Name)

	err := validation.ValidateUsername(username)
	if err != nil {
		return nil, invalid(err)
	}

	err = validation.ValidateEmail(email)
	if err != nil {
		return nil, invalid(err)
	}

	err = validation.ValidateName(name)
	if err != nil {
		return nil, invalid(err)
	}

	err = validation.ValidatePassword(in.Password)
	if err != nil {
		return nil, invalid(err)
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := model.RoleMember
	if slices.Contains(s.adminUsernames, username) {
		role = model.RoleAdmin
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: &hash,
		IsNewUser:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.userRepository.Create(user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, ErrUsernameTaken
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	err = s.emailService.SendWelcomeEmail(ctx, user.Email, user.Name)
	if err != nil {
		slog.Warn("failed to send welcome email", "error", err, "user_id", user.ID)
	}

	slog.Info("user signed up", "user_id", user.ID, "username", user.Username, "role", user.Role)
	return user, nil
}

// Login accepts either a username or an email address as identifier.
func (s *AuthService) Login(identifier, password string) (*model.User, error) {
	identifier = strings.TrimSpace(strings.ToLower(identifier))

	var user *model.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.userRepository.ByEmail(identifier)
	} else {
		user, err = s.userRepository.ByUsername(identifier)
	}
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	err = s.ComparePassword(password, *user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// ChangePassword verifies the current password, stores the new one and
// clears the needs_password_change flag.
func (s *AuthService) ChangePassword(userID, currentPassword, newPassword string) (*model.User, error) {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPassword() || s.ComparePassword(currentPassword, *user.PasswordHash) != nil {
		return nil, ErrInvalidCurrentPassword
	}

	err = validation.ValidatePassword(newPassword)
	if err != nil {
		return nil, invalid(err)
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cleared := false
	user, err = s.userRepository.Update(userID, model.UserUpdate{
		PasswordHash:        &hash,
		NeedsPasswordChange: &cleared,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password changed", "user_id", userID)
	return user, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateJWT(user *model.User) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(s.jwtExpiry)

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      expiry.Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiry, nil
}

// VerifyJWT returns the user id carried by a valid token.
func (s *AuthService) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}

	return userID, nil
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
