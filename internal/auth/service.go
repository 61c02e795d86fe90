package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service verifies credentials, manages accounts and issues sessions.
type Service struct {
	store        UserStore
	sessions     *sessions
	logger       *zap.Logger
	defaultAdmin string
	hashCost     int
}

// Option configures a Service.
type Option func(*Service)

// WithHashCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// WithClock overrides the clock used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.sessions.now = now }
}

// NewService creates a new auth Service. defaultAdmin names the account
// that can never be deleted.
func NewService(store UserStore, logger *zap.Logger, defaultAdmin string, sessionTTL time.Duration, opts ...Option) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	s := &Service{
		store:        store,
		sessions:     newSessions(sessionTTL, time.Now),
		logger:       logger,
		defaultAdmin: defaultAdmin,
		hashCost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureDefaultAdmin creates the default admin account when no user exists
// yet. It reports whether an account was created.
func (s *Service) EnsureDefaultAdmin(ctx context.Context, password string) (bool, error) {
	n, err := s.store.CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	if _, err := s.AddUser(ctx, s.defaultAdmin, password, string(RoleAdmin)); err != nil {
		return false, err
	}
	s.logger.Warn("default admin created, change its password", zap.String("username", s.defaultAdmin))
	return true, nil
}

// Verify checks credentials and returns the user's role.
func (s *Service) Verify(ctx context.Context, username, password string) (Role, error) {
	user, err := s.store.FindUser(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return user.Role, nil
}

// Login verifies credentials and opens a session.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	role, err := s.Verify(ctx, username, password)
	if err != nil {
		s.logger.Warn("login failed", zap.String("username", username), zap.Error(err))
		return Session{}, err
	}

	session := s.sessions.create(username, role)
	s.logger.Info("user logged in", zap.String("username", username), zap.String("role", string(role)))
	return session, nil
}

// Authenticate resolves a session token.
func (s *Service) Authenticate(token string) (Session, error) {
	return s.sessions.lookup(token)
}

// Logout ends a session.
func (s *Service) Logout(token string) {
	s.sessions.revoke(token)
}

// AddUser creates an account. Usernames are unique.
func (s *Service) AddUser(ctx context.Context, username, password, role string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}
	parsedRole, err := ParseRole(role)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         parsedRole,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			s.logger.Warn("user already exists", zap.String("username", username))
			return nil, err
		}
		s.logger.Error("failed to save user", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	s.logger.Info("user created", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return user, nil
}

// DeleteUser removes an account and its sessions. The default admin is
// protected.
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	if username == s.defaultAdmin {
		return ErrProtectedUser
	}
	if err := s.store.DeleteUser(ctx, username); err != nil {
		return err
	}
	s.sessions.revokeUser(username)
	s.logger.Info("user deleted", zap.String("username", username))
	return nil
}

// ListUsers returns every account.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}
