package auth

import (
	"context"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
)

// UserDirectory is the persistence contract the auth core depends on.
// Lookups return user.ErrNotFound when nothing matches; Insert returns
// user.ErrEmailTaken or user.ErrUsernameTaken when a unique key collides.
// Emails are stored and queried lower-cased.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByUsername(ctx context.Context, username string) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
	Insert(ctx context.Context, u user.User) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// Denylist records revoked token ids until they would have expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// OutcomeRecorder counts auth operations by result kind.
type OutcomeRecorder interface {
	AuthOutcome(op, outcome string)
}
