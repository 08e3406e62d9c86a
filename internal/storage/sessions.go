package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tradejournal/internal/core"
)

// CreateSession stores a session token for a user.
func (r *Repository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		token, userID, expiresAt.UTC(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// ValidateSession resolves a token to its user. Unknown and expired
// tokens are both core.ErrNotFound.
func (r *Repository) ValidateSession(ctx context.Context, token string) (core.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.username, u.password_hash, u.active_balance, u.created_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?`, token, time.Now().UTC())

	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.ActiveBalance.Cents, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("validate session: %w", err)
	}
	return u, nil
}

// DeleteSession removes a session token.
func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanExpiredSessions removes sessions past their expiry.
func (r *Repository) CleanExpiredSessions(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC()); err != nil {
		return fmt.Errorf("clean expired sessions: %w", err)
	}
	return nil
}
