package reader

import (
	"context"

	"Readout/internal/core/comments"
	"Readout/internal/core/mediators"
	"Readout/internal/core/paging"
	"Readout/internal/core/posts"
	"Readout/internal/core/subreddits"
	"Readout/internal/core/users"
	"Readout/internal/core/votes"
	"Readout/internal/reddit"
)

// Service is the read-through repository the API layer talks to. Every read
// comes from the local store; remote loads happen behind the pagers.
type Service interface {
	// FeedPager returns the pager of the feed. The store holds one feed at a
	// time, so asking for a different scope replaces the previous pager.
	FeedPager(scope mediators.FeedScope) *paging.Pager[*posts.PostView]
	// SearchPager returns the pager of one search query.
	SearchPager(scope mediators.SearchScope) (*paging.Pager[*posts.PostView], error)
	// CommentPager returns the pager of one post's comments.
	CommentPager(postID string) (*paging.Pager[*comments.CommentView], error)

	// FeedPage reads one page of the feed, loading remotely when the store
	// runs short. refresh reloads from the first remote page.
	FeedPage(ctx context.Context, scope mediators.FeedScope, cursor paging.Cursor, limit int, refresh bool) (paging.Page[*posts.PostView], error)
	// SearchPage reads one page of search results.
	SearchPage(ctx context.Context, scope mediators.SearchScope, cursor paging.Cursor, limit int, refresh bool) (paging.Page[*posts.PostView], error)
	// CommentPage reads one page of a post's comments in pre-order.
	CommentPage(ctx context.Context, postID string, cursor paging.Cursor, limit int, refresh bool) (paging.Page[*comments.CommentView], error)

	// GetPost returns the cached post.
	GetPost(ctx context.Context, id string) (*posts.PostView, error)
	// ObservePost emits the post whenever its row or its author changes.
	ObservePost(ctx context.Context, id string) (<-chan *posts.PostView, error)
	// ObserveComment emits the comment whenever its row or its author changes.
	ObserveComment(ctx context.Context, id string) (<-chan *comments.CommentView, error)
	// RefreshPost overlays the latest remote state onto the cached post.
	RefreshPost(ctx context.Context, id string) (*posts.PostView, error)

	VotePost(ctx context.Context, id string, dir votes.Direction) (*votes.State, error)
	VoteComment(ctx context.Context, id string, dir votes.Direction) (*votes.State, error)
	SetPostSaved(ctx context.Context, id string, saved bool) (*votes.State, error)
	SetCommentSaved(ctx context.Context, id string, saved bool) (*votes.State, error)

	// EnsureUser fetches the profile of name unless it is already cached.
	EnsureUser(ctx context.Context, name string) (*users.UserView, error)

	SyncSubscriptions(ctx context.Context) (int, error)
	ListSubreddits(ctx context.Context, subscribedOnly bool) ([]*subreddits.Subreddit, error)
}

// Enricher fetches author profiles. users.Enricher satisfies it.
type Enricher interface {
	EnsureUser(ctx context.Context, name string) (*users.User, error)
	EnrichAsync(names []string)
}

// Remote is the slice of the remote API the repository reads through.
// reddit.Client satisfies it.
type Remote interface {
	mediators.Remote
	PostByID(ctx context.Context, fullname string) (*reddit.Link, error)
}
