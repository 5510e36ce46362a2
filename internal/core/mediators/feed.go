package mediators

import (
	"context"
	"fmt"
	"log/slog"

	"Readout/internal/core/paging"
	"Readout/internal/reddit"
)

// FeedMediator loads the home feed or one subreddit's listing into the posts
// table. A refresh truncates the posts table and every feed remote key.
type FeedMediator struct {
	base
	scope FeedScope
}

// Ensure FeedMediator implements paging.RemoteMediator.
var _ paging.RemoteMediator = (*FeedMediator)(nil)

// NewFeedMediator creates a mediator for scope. enricher may be nil.
func NewFeedMediator(remote Remote, store Store, enricher AuthorEnricher, scope FeedScope, logger *slog.Logger) *FeedMediator {
	if scope.Sort == "" {
		scope.Sort = "hot"
	}
	return &FeedMediator{
		base:  newBase(remote, store, enricher, logger),
		scope: scope,
	}
}

// Scope returns the listing the mediator follows.
func (m *FeedMediator) Scope() FeedScope {
	return m.scope
}

// Stale reports whether the stored feed was loaded for another scope, or for
// no recorded scope at all. A stale feed must be refreshed before it is read.
func (m *FeedMediator) Stale(ctx context.Context) (bool, error) {
	stored, err := m.store.Scope(ctx, feedScopeName)
	if err != nil {
		return false, fmt.Errorf("failed to read feed scope: %w", err)
	}
	return stored != m.scope.key(), nil
}

// Load fetches one remote page and stores it in a single transaction.
func (m *FeedMediator) Load(ctx context.Context, loadType paging.LoadType, state paging.PagingState) (res paging.MediatorResult) {
	defer m.recoverLoad(&res, "feed")

	cursor, done := appendCursor(ctx, loadType, state, func(ctx context.Context, postID string) (string, error) {
		key, err := m.store.RemoteKey(ctx, postID)
		if err != nil {
			return "", err
		}
		return key.NextKey, nil
	})
	if done != nil {
		return *done
	}

	page, err := m.remote.Listing(ctx, reddit.ListingRequest{
		Subreddit: m.scope.Subreddit,
		Sort:      m.scope.Sort,
		Time:      m.scope.Time,
		After:     cursor,
		Limit:     state.PageSize,
	})
	if err != nil {
		return paging.Failure(fmt.Errorf("failed to fetch feed page: %w", err))
	}
	end := len(page.Links) == 0 || page.After == ""

	var pending []string
	err = m.store.InTx(ctx, func(tx Tx) error {
		if loadType == paging.Refresh {
			if err := tx.ClearFeed(ctx); err != nil {
				return err
			}
			if err := tx.SetScope(ctx, feedScopeName, m.scope.key()); err != nil {
				return err
			}
		}

		first, err := tx.NextFeedSortKey(ctx)
		if err != nil {
			return err
		}
		rows := mapLinks(page.Links, first)
		if err := tx.UpsertFeedPosts(ctx, rows); err != nil {
			return err
		}

		keys := make([]RemoteKey, 0, len(rows))
		for _, p := range rows {
			keys = append(keys, RemoteKey{PostID: p.ID, PrevKey: page.Before, NextKey: page.After})
		}
		if err := tx.UpsertRemoteKeys(ctx, keys); err != nil {
			return err
		}

		pending, err = tx.InsertPlaceholderUsers(ctx, postAuthors(rows))
		return err
	})
	if err != nil {
		return paging.Failure(fmt.Errorf("failed to store feed page: %w", err))
	}

	m.logger.Debug("feed page stored",
		"subreddit", m.scope.Subreddit,
		"sort", m.scope.Sort,
		"load_type", loadType.String(),
		"posts", len(page.Links),
		"end", end)

	m.enrich(pending)
	return paging.Success(end)
}
