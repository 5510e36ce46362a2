package users

import (
	"context"

	"Readout/internal/reddit"
)

// Repository defines the data access interface for cached users
type Repository interface {
	// GetUser returns the cached row for name, or ErrUserNotFound.
	GetUser(ctx context.Context, name string) (*User, error)

	// GetUsers retrieves multiple users in a single query.
	// Missing users are not included in the result map.
	GetUsers(ctx context.Context, names []string) (map[string]*User, error)

	// UpsertUser inserts or replaces a user row.
	UpsertUser(ctx context.Context, user *User) error
}

// ProfileFetcher fetches a user's public profile from the remote API.
// reddit.Client satisfies it.
type ProfileFetcher interface {
	UserAbout(ctx context.Context, name string) (*reddit.Account, error)
}
