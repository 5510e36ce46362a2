package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"Readout/internal/core/comments"
	"Readout/internal/core/posts"
	"Readout/internal/core/votes"
)

type voteStore struct {
	store *Store
}

// NewVoteStore exposes the vote and save state of cached posts and comments
func NewVoteStore(store *Store) votes.Store {
	return &voteStore{store: store}
}

// subjectTable picks the table holding id from its fullname prefix.
func subjectTable(id string) (string, error) {
	switch {
	case strings.HasPrefix(id, "t3_"):
		return posts.Table, nil
	case strings.HasPrefix(id, "t1_"):
		return comments.Table, nil
	default:
		return "", fmt.Errorf("%w: %q", votes.ErrInvalidSubject, id)
	}
}

func (s *voteStore) GetState(ctx context.Context, id string) (*votes.State, error) {
	table, err := subjectTable(id)
	if err != nil {
		return nil, err
	}
	return readState(ctx, s.store.db, table, id)
}

// MutateState reads, mutates and writes the state in one transaction so
// concurrent votes on the same row never lose an update.
func (s *voteStore) MutateState(ctx context.Context, id string, fn func(st *votes.State)) (*votes.State, error) {
	table, err := subjectTable(id)
	if err != nil {
		return nil, err
	}

	var out *votes.State
	err = s.store.runTx(ctx, func(t *txn) error {
		st, err := readState(ctx, t.tx, table, id)
		if err != nil {
			return err
		}

		fn(st)
		st.ID = id

		query := `UPDATE ` + table + ` SET score = $2, likes = $3, saved = $4 WHERE id = $1`
		if _, err := t.tx.ExecContext(ctx, query, id, st.Score, st.Likes, st.Saved); err != nil {
			return fmt.Errorf("failed to update vote state of %s: %w", id, err)
		}
		t.touch(table)
		out = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// readState loads the vote state of id from table, which must be a known
// table name and never caller input.
func readState(ctx context.Context, q queryer, table, id string) (*votes.State, error) {
	query := `SELECT id, score, likes, saved FROM ` + table + ` WHERE id = $1`

	var (
		st    votes.State
		likes sql.NullBool
	)
	err := q.QueryRowContext(ctx, query, id).Scan(&st.ID, &st.Score, &likes, &st.Saved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", votes.ErrSubjectNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read vote state of %s: %w", id, err)
	}
	st.Likes = nullBoolPtr(likes)
	return &st, nil
}
