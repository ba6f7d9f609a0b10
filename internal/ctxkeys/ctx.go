package ctxkeys

import (
	"context"

	"github.com/trakapp/trak/internal/config"
	"github.com/trakapp/trak/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	UserKey      contextKey = "user"
	SubjectIDKey contextKey = "subject_id"
	ConfigKey    contextKey = "config"
	CSRFTokenKey contextKey = "csrf_token"
	RequestIDKey contextKey = "request_id"
)

// User is the authenticated caller, nil for anonymous requests.
func User(ctx context.Context) *model.User {
	user, _ := ctx.Value(UserKey).(*model.User)
	return user
}

func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// SubjectID is the user a request acts on: the ?userId= parameter when
// present, otherwise the caller.
func SubjectID(ctx context.Context) string {
	id, _ := ctx.Value(SubjectIDKey).(string)
	if id == "" {
		if user := User(ctx); user != nil {
			return user.ID
		}
	}
	return id
}

func WithSubjectID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SubjectIDKey, id)
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}

func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(CSRFTokenKey).(string)
	return token
}

func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, CSRFTokenKey, token)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
