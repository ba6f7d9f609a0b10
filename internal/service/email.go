package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

var ErrEmailNotConfigured = errors.New("email service not configured (missing RESEND_API_KEY)")

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

// NewEmailService logs instead of sending in development.
func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) SendWelcomeEmail(ctx context.Context, email, name string) error {
	subject, body := welcomeEmailTemplate(name, s.appURL, s.appName)
	return s.send(ctx, "welcome", email, subject, body)
}

func (s *EmailService) SendRedemptionEmail(ctx context.Context, email, name, rewardTitle string, pointsSpent, balance int) error {
	subject, body := redemptionEmailTemplate(name, rewardTitle, pointsSpent, balance, s.appName)
	return s.send(ctx, "redemption", email, subject, body)
}

func (s *EmailService) SendChallengeCompletedEmail(ctx context.Context, email, name, challengeTitle string, rewardPoints int) error {
	subject, body := challengeCompletedEmailTemplate(name, challengeTitle, rewardPoints, s.appName)
	return s.send(ctx, "challenge_completed", email, subject, body)
}

func (s *EmailService) SendPasswordResetEmail(ctx context.Context, email, name, token string, validFor time.Duration) error {
	subject, body := passwordResetEmailTemplate(name, token, validFor, s.appName)
	return s.send(ctx, "password_reset", email, subject, body)
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject)
		return nil
	}

	if s.client == nil {
		return ErrEmailNotConfigured
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}
