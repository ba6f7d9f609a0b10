package repository

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/trakapp/trak/internal/config"
)

// NewUserStore picks the user backend named by USER_STORE.
func NewUserStore(kind string, db *sqlx.DB) (UserRepository, error) {
	switch kind {
	case config.UserStoreSQL, "":
		return NewUserRepository(db), nil
	case config.UserStoreMemory:
		slog.Warn("using in-memory user store, users are lost on restart")
		return NewMemoryUserRepository(), nil
	default:
		return nil, fmt.Errorf("unknown user store: %s (supported: sql, memory)", kind)
	}
}
