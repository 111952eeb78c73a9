// Package store keeps user documents & the discovery index.
package store

import (
	"context"

	"github.com/Daskott/lifeline/server/logger"
	"github.com/Daskott/lifeline/server/models"
	"github.com/pkg/errors"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrTokenNotFound = errors.New("discovery token not found")
	ErrSameUser      = errors.New("pair update needs two different users")

	logg = logger.NewLogger()
)

// UserFn mutates one user in place. 'user' is nil when the document doesn't exist.
// Returning an error aborts the update & nothing is written.
type UserFn func(user *models.User) error

// PairFn mutates two users in place. Either may be nil when its document doesn't exist.
// Returning an error aborts the update & neither document is written.
type PairFn func(a, b *models.User) error

// Store is the users collection. Paired updates are all-or-nothing.
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, fn UserFn) error
	UpdatePair(ctx context.Context, aID, bID string, fn PairFn) error
	ForEachUser(ctx context.Context, fn func(user *models.User) error) error
}

// Writer replaces whole user documents, creating them when missing
type Writer interface {
	SaveUser(ctx context.Context, user *models.User) error
}

// DiscoveryIndex maps an opaque discovery token to a user id
type DiscoveryIndex interface {
	Resolve(ctx context.Context, token string) (string, error)
	Issue(ctx context.Context, userID string) (string, error)
}
