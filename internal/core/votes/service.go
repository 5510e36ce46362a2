package votes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type voteService struct {
	remote RemoteWriter
	store  Store
	logger *slog.Logger
}

// NewService creates a vote service.
func NewService(remote RemoteWriter, store Store, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &voteService{remote: remote, store: store, logger: logger}
}

// ValidateSubject checks that id is a post or comment fullname.
func ValidateSubject(id string) error {
	kind, rest, ok := strings.Cut(id, "_")
	if !ok || rest == "" || (kind != "t1" && kind != "t3") {
		return fmt.Errorf("%w: %q", ErrInvalidSubject, id)
	}
	return nil
}

func (s *voteService) Vote(ctx context.Context, id string, dir Direction) (*State, error) {
	if err := ValidateSubject(id); err != nil {
		return nil, err
	}
	if !dir.Valid() {
		return nil, ErrInvalidDirection
	}
	if _, err := s.store.GetState(ctx, id); err != nil {
		return nil, err
	}

	// The local state is applied even when the remote write fails
	if err := s.remote.Vote(ctx, id, int(dir)); err != nil {
		s.logger.Warn("remote vote failed, applying locally",
			"id", id,
			"direction", dir.String(),
			"error", err)
	}

	st, err := s.store.MutateState(ctx, id, func(st *State) {
		st.Score, st.Likes = Apply(st.Score, st.Likes, dir)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply vote: %w", err)
	}
	return st, nil
}

func (s *voteService) SetSaved(ctx context.Context, id string, saved bool) (*State, error) {
	if err := ValidateSubject(id); err != nil {
		return nil, err
	}
	if _, err := s.store.GetState(ctx, id); err != nil {
		return nil, err
	}

	write := s.remote.Unsave
	if saved {
		write = s.remote.Save
	}
	if err := write(ctx, id); err != nil {
		s.logger.Warn("remote save failed, applying locally",
			"id", id,
			"saved", saved,
			"error", err)
	}

	st, err := s.store.MutateState(ctx, id, func(st *State) {
		st.Saved = saved
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply save: %w", err)
	}
	return st, nil
}
