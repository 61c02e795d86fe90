package auth

import (
	"context"
	"sort"
	"sync"
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user User) (*User, error)
	FindUser(ctx context.Context, username string) (*User, error)
	DeleteUser(ctx context.Context, username string) error
	ListUsers(ctx context.Context) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
}

// LocalUserStore provides an in-memory implementation for storing users.
type LocalUserStore struct {
	mu     sync.RWMutex
	m      map[string]User
	lastID int64
}

// NewLocalUserStore instantiates a new LocalUserStore with an empty map.
func NewLocalUserStore() *LocalUserStore {
	return &LocalUserStore{m: map[string]User{}}
}

// CreateUser stores a new user. Returns ErrDuplicateUser if the username is taken.
func (l *LocalUserStore) CreateUser(_ context.Context, user User) (*User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.m[user.Username]; ok {
		return nil, ErrDuplicateUser
	}
	l.lastID++
	user.ID = l.lastID
	l.m[user.Username] = user
	return &user, nil
}

// FindUser retrieves a user by username.
// Returns ErrUserNotFound if the user is not found.
func (l *LocalUserStore) FindUser(_ context.Context, username string) (*User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	u, ok := l.m[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (l *LocalUserStore) DeleteUser(_ context.Context, username string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.m[username]; !ok {
		return ErrUserNotFound
	}
	delete(l.m, username)
	return nil
}

func (l *LocalUserStore) ListUsers(_ context.Context) ([]User, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	users := make([]User, 0, len(l.m))
	for _, u := range l.m {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (l *LocalUserStore) CountUsers(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.m), nil
}
