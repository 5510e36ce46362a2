package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Readout/internal/core/comments"
	"Readout/internal/core/mediators"
	"Readout/internal/core/posts"
	"Readout/internal/core/users"
)

type mediatorStore struct {
	store *Store
}

// NewMediatorStore exposes the remote keys and page transactions the mediators need
func NewMediatorStore(store *Store) mediators.Store {
	return &mediatorStore{store: store}
}

func (s *mediatorStore) RemoteKey(ctx context.Context, postID string) (*mediators.RemoteKey, error) {
	query := `SELECT post_id, prev_key, next_key FROM remote_keys WHERE post_id = $1`

	var key mediators.RemoteKey
	err := s.store.db.QueryRowContext(ctx, query, postID).Scan(&key.PostID, &key.PrevKey, &key.NextKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mediators.ErrNoRemoteKey
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get remote key for %s: %w", postID, err)
	}
	return &key, nil
}

func (s *mediatorStore) SearchRemoteKey(ctx context.Context, q, postID string) (*mediators.SearchRemoteKey, error) {
	query := `SELECT query, post_id, prev_key, next_key FROM search_remote_keys WHERE query = $1 AND post_id = $2`

	var key mediators.SearchRemoteKey
	err := s.store.db.QueryRowContext(ctx, query, q, postID).Scan(&key.Query, &key.PostID, &key.PrevKey, &key.NextKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, mediators.ErrNoRemoteKey
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get search remote key for %s: %w", postID, err)
	}
	return &key, nil
}

func (s *mediatorStore) Scope(ctx context.Context, name string) (string, error) {
	var scope string
	err := s.store.db.QueryRowContext(ctx, `SELECT scope FROM paging_scopes WHERE name = $1`, name).Scan(&scope)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get scope %s: %w", name, err)
	}
	return scope, nil
}

func (s *mediatorStore) InTx(ctx context.Context, fn func(tx mediators.Tx) error) error {
	return s.store.runTx(ctx, func(t *txn) error {
		return fn(&mediatorTx{txn: t})
	})
}

// mediatorTx implements mediators.Tx on an open transaction.
type mediatorTx struct {
	*txn
}

func (t *mediatorTx) ClearFeed(ctx context.Context) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM remote_keys`); err != nil {
		return fmt.Errorf("failed to clear remote keys: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM posts`); err != nil {
		return fmt.Errorf("failed to clear posts: %w", err)
	}
	t.touch(mediators.RemoteKeysTable, posts.Table)
	return nil
}

func (t *mediatorTx) ClearSearch(ctx context.Context, query string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM search_results WHERE query = $1`, query); err != nil {
		return fmt.Errorf("failed to clear search results: %w", err)
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM search_remote_keys WHERE query = $1`, query); err != nil {
		return fmt.Errorf("failed to clear search remote keys: %w", err)
	}
	t.touch(mediators.SearchResultsTable, mediators.SearchRemoteKeysTable)
	return nil
}

func (t *mediatorTx) SetScope(ctx context.Context, name, scope string) error {
	query := `
		INSERT INTO paging_scopes (name, scope)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET
			scope = excluded.scope`

	if _, err := t.tx.ExecContext(ctx, query, name, scope); err != nil {
		return fmt.Errorf("failed to set scope %s: %w", name, err)
	}
	t.touch(mediators.ScopesTable)
	return nil
}

func (t *mediatorTx) NextFeedSortKey(ctx context.Context) (int64, error) {
	return t.nextKey(ctx, `SELECT MAX(sort_key) FROM posts WHERE sort_key < $1`, 0, mediators.SearchSortKeyOffset)
}

func (t *mediatorTx) NextSearchSortKey(ctx context.Context, query string) (int64, error) {
	return t.nextKey(ctx, `SELECT MAX(sort_key) FROM search_results WHERE query = $1`, mediators.SearchSortKeyOffset, query)
}

func (t *mediatorTx) NextCommentSortKey(ctx context.Context, postID string) (int64, error) {
	return t.nextKey(ctx, `SELECT MAX(sort_key) FROM comments WHERE post_id = $1`, 0, postID)
}

// nextKey returns one past the MAX in query, or empty when there are no rows.
func (t *mediatorTx) nextKey(ctx context.Context, query string, empty int64, args ...any) (int64, error) {
	var maxKey sql.NullInt64
	if err := t.tx.QueryRowContext(ctx, query, args...).Scan(&maxKey); err != nil {
		return 0, fmt.Errorf("failed to read next sort key: %w", err)
	}
	if !maxKey.Valid {
		return empty, nil
	}
	return maxKey.Int64 + 1, nil
}

func (t *mediatorTx) UpsertFeedPosts(ctx context.Context, rows []*posts.Post) error {
	if err := upsertPosts(ctx, t.tx, upsertFeedPostQuery, rows); err != nil {
		return err
	}
	t.touch(posts.Table)
	return nil
}

func (t *mediatorTx) UpsertSearchPosts(ctx context.Context, rows []*posts.Post) error {
	if err := upsertPosts(ctx, t.tx, upsertSearchPostQuery, rows); err != nil {
		return err
	}
	t.touch(posts.Table)
	return nil
}

func (t *mediatorTx) GetPost(ctx context.Context, id string) (*posts.Post, error) {
	return getPost(ctx, t.tx, id)
}

func (t *mediatorTx) UpdatePost(ctx context.Context, post *posts.Post) error {
	if err := updatePost(ctx, t.tx, post); err != nil {
		return err
	}
	t.touch(posts.Table)
	return nil
}

func (t *mediatorTx) UpsertRemoteKeys(ctx context.Context, keys []mediators.RemoteKey) error {
	query := `
		INSERT INTO remote_keys (post_id, prev_key, next_key)
		VALUES ($1, $2, $3)
		ON CONFLICT (post_id) DO UPDATE SET
			prev_key = excluded.prev_key,
			next_key = excluded.next_key`

	for _, k := range keys {
		if _, err := t.tx.ExecContext(ctx, query, k.PostID, k.PrevKey, k.NextKey); err != nil {
			return fmt.Errorf("failed to upsert remote key for %s: %w", k.PostID, err)
		}
	}
	t.touch(mediators.RemoteKeysTable)
	return nil
}

func (t *mediatorTx) UpsertSearchResults(ctx context.Context, results []mediators.SearchResult) error {
	query := `
		INSERT INTO search_results (query, post_id, sort_key)
		VALUES ($1, $2, $3)
		ON CONFLICT (query, post_id) DO UPDATE SET
			sort_key = excluded.sort_key`

	for _, r := range results {
		if _, err := t.tx.ExecContext(ctx, query, r.Query, r.PostID, r.SortKey); err != nil {
			return fmt.Errorf("failed to upsert search result for %s: %w", r.PostID, err)
		}
	}
	t.touch(mediators.SearchResultsTable)
	return nil
}

func (t *mediatorTx) UpsertSearchRemoteKeys(ctx context.Context, keys []mediators.SearchRemoteKey) error {
	query := `
		INSERT INTO search_remote_keys (query, post_id, prev_key, next_key)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (query, post_id) DO UPDATE SET
			prev_key = excluded.prev_key,
			next_key = excluded.next_key`

	for _, k := range keys {
		if _, err := t.tx.ExecContext(ctx, query, k.Query, k.PostID, k.PrevKey, k.NextKey); err != nil {
			return fmt.Errorf("failed to upsert search remote key for %s: %w", k.PostID, err)
		}
	}
	t.touch(mediators.SearchRemoteKeysTable)
	return nil
}

func (t *mediatorTx) UpsertComments(ctx context.Context, rows []*comments.Comment) error {
	if err := upsertComments(ctx, t.tx, rows); err != nil {
		return err
	}
	t.touch(comments.Table)
	return nil
}

func (t *mediatorTx) InsertPlaceholderUsers(ctx context.Context, names []string) ([]string, error) {
	pending, err := insertPlaceholderUsers(ctx, t.tx, names)
	if err != nil {
		return nil, err
	}
	t.touch(users.Table)
	return pending, nil
}
