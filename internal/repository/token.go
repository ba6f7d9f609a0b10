package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/trakapp/trak/internal/model"
)

var ErrTokenNotFound = errors.New("token not found")

type TokenRepository interface {
	Create(token *model.Token) error
	// Consume marks an unused, unexpired token as used and returns it.
	// Of two concurrent calls only one succeeds.
	Consume(tokenHash, tokenType string, now time.Time) (*model.Token, error)
	DeleteUnused(userID, tokenType string) error
}

type tokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(token *model.Token) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}

	query := `INSERT INTO tokens (id, user_id, type, token_hash, expires_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(query,
		token.ID,
		token.UserID,
		token.Type,
		token.TokenHash,
		token.ExpiresAt.UTC(),
		token.CreatedAt.UTC(),
	)
	return err
}

func (r *tokenRepository) Consume(tokenHash, tokenType string, now time.Time) (*model.Token, error) {
	var token model.Token
	query := `UPDATE tokens SET used_at = $1
	          WHERE token_hash = $2 AND type = $3 AND used_at IS NULL AND expires_at > $1
	          RETURNING *`

	err := r.db.Get(&token, query, now.UTC(), tokenHash, tokenType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return &token, nil
}

func (r *tokenRepository) DeleteUnused(userID, tokenType string) error {
	query := `DELETE FROM tokens WHERE user_id = $1 AND type = $2 AND used_at IS NULL`
	_, err := r.db.Exec(query, userID, tokenType)
	return err
}
