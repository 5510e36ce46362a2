package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Readout/internal/core/subreddits"
)

const subredditColumns = `id, display_name, title, icon_url, subscribers, nsfw, subscribed`

type subredditRepo struct {
	store *Store
}

// NewSubredditRepository creates a subreddit repository over the local store
func NewSubredditRepository(store *Store) subreddits.Repository {
	return &subredditRepo{store: store}
}

func (r *subredditRepo) GetSubreddit(ctx context.Context, id string) (*subreddits.Subreddit, error) {
	query := `SELECT ` + subredditColumns + ` FROM subreddits WHERE id = $1`

	sr, err := scanSubreddit(r.store.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subreddits.ErrSubredditNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subreddit %s: %w", id, err)
	}
	return sr, nil
}

func (r *subredditRepo) ListSubreddits(ctx context.Context, subscribedOnly bool) ([]*subreddits.Subreddit, error) {
	query := `SELECT ` + subredditColumns + ` FROM subreddits`
	var args []any
	if subscribedOnly {
		query += ` WHERE subscribed = $1`
		args = append(args, true)
	}
	query += ` ORDER BY LOWER(display_name) ASC`

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subreddits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*subreddits.Subreddit
	for rows.Next() {
		sr, err := scanSubreddit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subreddit: %w", err)
		}
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subreddits: %w", err)
	}
	return out, nil
}

// ReplaceSubscribed marks every row unsubscribed, then upserts subs as
// subscribed. Rows for subreddits the user left stay cached.
func (r *subredditRepo) ReplaceSubscribed(ctx context.Context, subs []*subreddits.Subreddit) error {
	return r.store.runTx(ctx, func(t *txn) error {
		t.touch(subreddits.Table)

		if _, err := t.tx.ExecContext(ctx, `UPDATE subreddits SET subscribed = $1`, false); err != nil {
			return fmt.Errorf("failed to clear subscriptions: %w", err)
		}

		query := `
			INSERT INTO subreddits (` + subredditColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				display_name = excluded.display_name,
				title = excluded.title,
				icon_url = excluded.icon_url,
				subscribers = excluded.subscribers,
				nsfw = excluded.nsfw,
				subscribed = excluded.subscribed`

		for _, sr := range subs {
			_, err := t.tx.ExecContext(ctx, query,
				sr.ID, sr.DisplayName, sr.Title, sr.IconURL, sr.Subscribers, sr.NSFW, true)
			if err != nil {
				return fmt.Errorf("failed to upsert subreddit %s: %w", sr.ID, err)
			}
		}
		return nil
	})
}

func scanSubreddit(s scanner) (*subreddits.Subreddit, error) {
	var sr subreddits.Subreddit
	err := s.Scan(&sr.ID, &sr.DisplayName, &sr.Title, &sr.IconURL, &sr.Subscribers, &sr.NSFW, &sr.Subscribed)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}
