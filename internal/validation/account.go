package validation

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)

// ValidateUsername expects an already lowercased handle.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}

	if len(username) < 3 || len(username) > 32 {
		return errors.New("username must be between 3 and 32 characters")
	}

	if !usernamePattern.MatchString(username) {
		return errors.New("username may only contain letters, digits, dots, dashes and underscores")
	}

	return nil
}

// ValidateEmail checks length and RFC 5322 syntax.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}

	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email address format")
	}

	return nil
}

func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("name is required")
	}

	if len(trimmed) > 100 {
		return errors.New("name is too long (max 100 characters)")
	}

	return nil
}

var commonPasswords = []string{
	"password", "123456", "qwerty", "letmein", "welcome",
	"commute", "trak", "bicycle", "iloveyou", "abc123",
}

// ValidatePassword enforces a minimum length and rejects common fragments.
// bcrypt ignores input past 72 bytes, so longer passwords are refused.
func ValidatePassword(password string) error {
	if len(password) < 10 {
		return errors.New("password must be at least 10 characters")
	}

	if len(password) > 72 {
		return errors.New("password must not exceed 72 characters")
	}

	lower := strings.ToLower(password)
	for _, pattern := range commonPasswords {
		if strings.Contains(lower, pattern) {
			return errors.New("password is too common, please choose a stronger one")
		}
	}

	return nil
}
