package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("role must be 'admin' or 'cashier'")
	ErrInvalidInput       = errors.New("username and password are required")
	ErrProtectedUser      = errors.New("cannot delete default admin")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// Role decides which parts of the terminal a user can reach.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

// ParseRole validates a role name.
func ParseRole(raw string) (Role, error) {
	switch r := Role(raw); r {
	case RoleAdmin, RoleCashier:
		return r, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidRole, raw)
	}
}

// Allows reports whether r grants access to views that need required.
// Admins can reach every view.
func (r Role) Allows(required Role) bool {
	return r == RoleAdmin || r == required
}

// User is an account able to log in to the terminal.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
}

// Session is issued on login and carries the role for its lifetime.
type Session struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}
