package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateUser stores a new account with an already-hashed password.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash, fullName string) (User, error) {
	u := User{
		Username:     username,
		PasswordHash: passwordHash,
		FullName:     fullName,
		CreatedAt:    time.Now().UTC(),
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, full_name, created_at)
		VALUES (?, ?, ?, ?)`,
		u.Username, u.PasswordHash, u.FullName, u.CreatedAt,
	)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	u.ID, err = res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("user id: %w", err)
	}
	return u, nil
}

// GetUserByUsername loads an account for credential checks.
func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, full_name, created_at
		FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("get user %s: %w", username, err)
	}
	return u, nil
}
