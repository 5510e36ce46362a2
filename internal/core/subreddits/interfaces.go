package subreddits

import (
	"context"

	"Readout/internal/reddit"
)

// Service keeps the cached subscription list in sync.
type Service interface {
	// SyncSubscriptions fetches every page of the user's subscriptions and
	// applies them with a replace-all sweep. Returns the number of subscriptions.
	SyncSubscriptions(ctx context.Context) (int, error)

	// ListSubreddits returns cached subreddits ordered by display name.
	ListSubreddits(ctx context.Context, subscribedOnly bool) ([]*Subreddit, error)
}

// Repository defines the data access interface for cached subreddits
type Repository interface {
	// GetSubreddit returns the cached row, or ErrSubredditNotFound.
	GetSubreddit(ctx context.Context, id string) (*Subreddit, error)

	// ListSubreddits returns cached subreddits ordered by display name.
	ListSubreddits(ctx context.Context, subscribedOnly bool) ([]*Subreddit, error)

	// ReplaceSubscribed marks every row unsubscribed, then upserts subs as
	// subscribed, in one transaction.
	ReplaceSubscribed(ctx context.Context, subs []*Subreddit) error
}

// SubscriptionFetcher pages through the user's subscriptions.
// reddit.Client satisfies it.
type SubscriptionFetcher interface {
	SubscribedSubreddits(ctx context.Context, after string) (*reddit.SubredditPage, error)
}
