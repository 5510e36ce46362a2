package mediators

import (
	"context"

	"Readout/internal/core/comments"
	"Readout/internal/core/posts"
	"Readout/internal/reddit"
)

// Store is the slice of the local store the mediators need.
type Store interface {
	// RemoteKey returns the feed remote key stored for postID, or ErrNoRemoteKey.
	RemoteKey(ctx context.Context, postID string) (*RemoteKey, error)

	// SearchRemoteKey returns the remote key stored for postID under query, or ErrNoRemoteKey.
	SearchRemoteKey(ctx context.Context, query, postID string) (*SearchRemoteKey, error)

	// Scope returns the scope recorded under name, or "" when none is.
	Scope(ctx context.Context, name string) (string, error)

	// InTx runs fn in one transaction. The transaction is committed when fn
	// returns nil and rolled back otherwise; watchers are notified after commit.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the set of writes a mediator performs while storing one page.
type Tx interface {
	// ClearFeed deletes every feed remote key and every post row.
	ClearFeed(ctx context.Context) error
	// ClearSearch deletes the mapping rows and remote keys of query only.
	ClearSearch(ctx context.Context, query string) error
	// SetScope records which scope the rows under name now belong to.
	SetScope(ctx context.Context, name, scope string) error

	// NextFeedSortKey returns one past the largest feed sort key, or 0.
	NextFeedSortKey(ctx context.Context) (int64, error)
	// NextSearchSortKey returns one past the largest mapping key of query, or SearchSortKeyOffset.
	NextSearchSortKey(ctx context.Context, query string) (int64, error)
	// NextCommentSortKey returns one past the largest comment sort key of postID, or 0.
	NextCommentSortKey(ctx context.Context, postID string) (int64, error)

	// UpsertFeedPosts inserts or replaces posts, including their sort key.
	UpsertFeedPosts(ctx context.Context, rows []*posts.Post) error
	// UpsertSearchPosts inserts or replaces posts but keeps the sort key of existing rows.
	UpsertSearchPosts(ctx context.Context, rows []*posts.Post) error
	// GetPost returns the post row, or posts.ErrPostNotFound.
	GetPost(ctx context.Context, id string) (*posts.Post, error)
	// UpdatePost overwrites an existing post row, keeping its sort key.
	UpdatePost(ctx context.Context, post *posts.Post) error

	UpsertRemoteKeys(ctx context.Context, keys []RemoteKey) error
	UpsertSearchResults(ctx context.Context, results []SearchResult) error
	UpsertSearchRemoteKeys(ctx context.Context, keys []SearchRemoteKey) error

	UpsertComments(ctx context.Context, rows []*comments.Comment) error

	// InsertPlaceholderUsers inserts an empty row for each name not yet cached
	// and returns the names whose profile still has to be fetched.
	InsertPlaceholderUsers(ctx context.Context, names []string) ([]string, error)
}

// Remote is the slice of the remote API the mediators call.
// reddit.Client satisfies it.
type Remote interface {
	Listing(ctx context.Context, req reddit.ListingRequest) (*reddit.LinkPage, error)
	Search(ctx context.Context, req reddit.SearchRequest) (*reddit.LinkPage, error)
	CommentTree(ctx context.Context, postID string) (*reddit.CommentTree, error)
}

// AuthorEnricher fetches the profiles of placeholder authors once a page is committed.
// users.Enricher satisfies it.
type AuthorEnricher interface {
	EnrichAsync(names []string)
}
