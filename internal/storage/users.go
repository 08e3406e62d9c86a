package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tradejournal/internal/core"
)

// CreateUser inserts a user with a zero starting balance. Duplicate email
// or username surfaces as core.ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, email, username, passwordHash string) (core.User, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, username, password_hash, active_balance, created_at)
		 VALUES (?, ?, ?, 0, ?)`,
		email, username, passwordHash, now)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrConflict
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("create user id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", id, "username", username)

	return core.User{
		ID:           id,
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	return r.getUser(ctx, `WHERE id = ?`, id)
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return r.getUser(ctx, `WHERE email = ?`, email)
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	return r.getUser(ctx, `WHERE username = ?`, username)
}

func (r *Repository) getUser(ctx context.Context, where string, arg any) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, active_balance, created_at FROM users `+where, arg)

	var u core.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.ActiveBalance.Cents, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
