package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
)

var ErrTokenNotFound = errors.New("token not found")

// Tokens records issued refresh tokens. A refresh token can be consumed once.
type Tokens struct {
	db *sql.DB
}

func NewTokens(db *sql.DB) *Tokens {
	return &Tokens{db}
}

func (t *Tokens) Store(ctx context.Context, login, tokenID, refreshTokenID string, expiration time.Time) error {
	_, err := t.db.ExecContext(ctx,
		"INSERT INTO token (username, token_id, refresh_token_id, expiration) VALUES (?, ?, ?, ?)",
		login,
		tokenID,
		refreshTokenID,
		expiration.UTC(),
	)
	return errors.Wrap(err, "store token")
}

// Consume deletes the token and reports ErrTokenNotFound when it was
// unknown or already expired.
func (t *Tokens) Consume(ctx context.Context, login, tokenID, refreshTokenID string, now time.Time) error {
	var expiration time.Time
	err := t.db.
		QueryRowContext(ctx, `
			DELETE FROM token
			WHERE username = ?
				AND token_id = ?
				AND refresh_token_id = ?
			RETURNING expiration`,
			login,
			tokenID,
			refreshTokenID,
		).
		Scan(&expiration)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTokenNotFound
	}
	if err != nil {
		return errors.Wrap(err, "consume token")
	}
	if expiration.Before(now) {
		return ErrTokenNotFound
	}
	return nil
}

// Revoke drops every token of a user.
func (t *Tokens) Revoke(ctx context.Context, login string) error {
	_, err := t.db.ExecContext(ctx, "DELETE FROM token WHERE username = ?", login)
	return errors.Wrap(err, "revoke tokens")
}

// Prune drops expired tokens and returns how many were removed.
func (t *Tokens) Prune(ctx context.Context, now time.Time) (int64, error) {
	res, err := t.db.ExecContext(ctx, "DELETE FROM token WHERE expiration < ?", now.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "prune tokens")
	}
	return res.RowsAffected()
}
