package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"Readout/internal/core/mediators"
	"Readout/internal/core/posts"
)

// PrefetchOptions selects what Prefetch warms.
type PrefetchOptions struct {
	Scope mediators.FeedScope
	// Pages of the feed to load, including the first.
	Pages int
	// CommentPosts is how many of the loaded posts get their comments fetched.
	CommentPosts int
	// Concurrency bounds simultaneous comment tree fetches.
	Concurrency       int
	SyncSubscriptions bool
}

// PrefetchStats reports what Prefetch stored.
type PrefetchStats struct {
	Subscriptions int
	Posts         int
	CommentPosts  int
	Failed        int
}

// Prefetch warms the cache for offline reading: it optionally syncs
// subscriptions, refreshes the feed and appends pages, then fetches the
// comments of the first posts. Comment fetch failures are counted, not fatal.
func (a *App) Prefetch(ctx context.Context, opts PrefetchOptions) (PrefetchStats, error) {
	var stats PrefetchStats
	if opts.Pages < 1 {
		opts.Pages = 1
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}

	if opts.SyncSubscriptions {
		n, err := a.Reader.SyncSubscriptions(ctx)
		if err != nil {
			return stats, fmt.Errorf("failed to sync subscriptions: %w", err)
		}
		stats.Subscriptions = n
	}

	pager := a.Reader.FeedPager(opts.Scope)
	page, err := pager.Refresh(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to refresh feed: %w", err)
	}
	for i := 1; i < opts.Pages && !page.EndReached; i++ {
		if page, err = pager.Append(ctx); err != nil {
			return stats, fmt.Errorf("failed to load feed page %d: %w", i+1, err)
		}
	}

	loaded := pager.Items()
	stats.Posts = len(loaded)
	if opts.CommentPosts > len(loaded) {
		opts.CommentPosts = len(loaded)
	}

	results := make([]error, opts.CommentPosts)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, p := range loaded[:opts.CommentPosts] {
		g.Go(func() error {
			results[i] = a.prefetchComments(gctx, p)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range results {
		if err != nil {
			stats.Failed++
			a.Logger.Warn("comment prefetch failed", "post", loaded[i].ID, "error", err)
			continue
		}
		stats.CommentPosts++
	}

	a.Enricher.Wait()
	return stats, ctx.Err()
}

func (a *App) prefetchComments(ctx context.Context, p *posts.PostView) error {
	pager, err := a.Reader.CommentPager(p.ID)
	if err != nil {
		return err
	}
	_, err = pager.Refresh(ctx)
	return err
}
