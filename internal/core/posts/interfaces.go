package posts

import "context"

// Repository defines the read and narrow-write access to cached posts.
// Bulk writes happen inside mediator transactions.
type Repository interface {
	// GetPost returns the cached post, or ErrPostNotFound.
	GetPost(ctx context.Context, id string) (*Post, error)

	// ListFeedPosts returns feed-scoped posts with sort key greater than after, ascending.
	ListFeedPosts(ctx context.Context, after int64, limit int) ([]*Post, error)

	// ListSearchPosts returns the posts mapped to query with mapping sort key greater
	// than after, ascending. The returned SortKey is the mapping's key.
	ListSearchPosts(ctx context.Context, query string, after int64, limit int) ([]*Post, error)

	// UpdatePost overwrites an existing row, keeping its sort key.
	UpdatePost(ctx context.Context, post *Post) error
}
