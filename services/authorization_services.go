package services

import (
	"context"
	"errors"
	"time"

	"taikoweb/database"
	"taikoweb/models"
)

// UserFinder resolves privileged accounts by username
type UserFinder interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Gate decides whether a caller may run an operation guarded by a privilege level
type Gate struct {
	users   UserFinder
	timeout time.Duration
}

// NewGate builds a gate reading accounts from users. timeout bounds the lookup, 0 disables it.
func NewGate(users UserFinder, timeout time.Duration) *Gate {
	return &Gate{users: users, timeout: timeout}
}

// Authorize returns the caller's account when it exists and its level is at least level.
// An empty caller is anonymous and is denied without touching the store.
func (g *Gate) Authorize(ctx context.Context, caller string, level int) (*models.User, error) {
	if caller == "" {
		return nil, newError(ErrNotAuthenticated, nil)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	user, err := g.users.FindUserByUsername(ctx, caller)
	if errors.Is(err, database.ErrNotFound) {
		return nil, newErrorf(ErrUnknownUser, "user %q", caller)
	}
	if err != nil {
		return nil, newError(ErrStoreUnavailable, err)
	}
	if user.UserLevel < level {
		return nil, newErrorf(ErrInsufficientPrivilege, "user %q has level %d, %d required", caller, user.UserLevel, level)
	}
	return user, nil
}
