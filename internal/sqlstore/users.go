package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"api_pos/internal/auth"
)

func (s *Store) CreateUser(ctx context.Context, user auth.User) (*auth.User, error) {
	err := s.conn().queryRow(ctx,
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?) RETURNING id`,
		user.Username, user.PasswordHash, string(user.Role),
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, auth.ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return &user, nil
}

func (s *Store) FindUser(ctx context.Context, username string) (*auth.User, error) {
	var (
		u    auth.User
		role string
	)
	err := s.conn().queryRow(ctx,
		`SELECT id, username, password_hash, role FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	u.Role = auth.Role(role)
	return &u, nil
}

func (s *Store) DeleteUser(ctx context.Context, username string) error {
	res, err := s.conn().exec(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]auth.User, error) {
	rows, err := s.conn().query(ctx, `SELECT id, username, role FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]auth.User, 0)
	for rows.Next() {
		var (
			u    auth.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Username, &role); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.Role = auth.Role(role)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.conn().queryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
