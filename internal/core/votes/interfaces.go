package votes

import "context"

// Service applies vote and save actions: the remote write is issued first and
// the local row is then updated regardless of its outcome.
type Service interface {
	// Vote casts dir on a post or comment and returns the updated local state.
	Vote(ctx context.Context, id string, dir Direction) (*State, error)

	// SetSaved saves or unsaves a post or comment and returns the updated local state.
	SetSaved(ctx context.Context, id string, saved bool) (*State, error)
}

// RemoteWriter issues vote and save writes against the remote API.
// reddit.Client satisfies it.
type RemoteWriter interface {
	Vote(ctx context.Context, fullname string, dir int) error
	Save(ctx context.Context, fullname string) error
	Unsave(ctx context.Context, fullname string) error
}

// Store reads and mutates the cached vote state of posts and comments.
type Store interface {
	// GetState returns the cached state, or ErrSubjectNotFound.
	GetState(ctx context.Context, id string) (*State, error)

	// MutateState reads the current state, applies fn and persists the result atomically.
	MutateState(ctx context.Context, id string, fn func(st *State)) (*State, error)
}
