package mediators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"Readout/internal/core/paging"
	"Readout/internal/reddit"
)

// SearchMediator loads the results of one query. Posts are shared with the
// feed, so a refresh only clears this query's mappings and remote keys, and
// existing posts keep their sort key.
type SearchMediator struct {
	base
	scope SearchScope
}

// Ensure SearchMediator implements paging.RemoteMediator.
var _ paging.RemoteMediator = (*SearchMediator)(nil)

// NewSearchMediator creates a mediator for scope. The query must not be blank.
func NewSearchMediator(remote Remote, store Store, enricher AuthorEnricher, scope SearchScope, logger *slog.Logger) (*SearchMediator, error) {
	if strings.TrimSpace(scope.Query) == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidScope)
	}
	if scope.Sort == "" {
		scope.Sort = "relevance"
	}
	return &SearchMediator{
		base:  newBase(remote, store, enricher, logger),
		scope: scope,
	}, nil
}

// Scope returns the search the mediator follows.
func (m *SearchMediator) Scope() SearchScope {
	return m.scope
}

// Stale reports whether the stored results of the query were loaded with
// other search options, or were never loaded.
func (m *SearchMediator) Stale(ctx context.Context) (bool, error) {
	stored, err := m.store.Scope(ctx, searchScopeName(m.scope.Query))
	if err != nil {
		return false, fmt.Errorf("failed to read search scope: %w", err)
	}
	return stored != m.scope.key(), nil
}

// Load fetches one remote page of results and stores it in a single transaction.
func (m *SearchMediator) Load(ctx context.Context, loadType paging.LoadType, state paging.PagingState) (res paging.MediatorResult) {
	defer m.recoverLoad(&res, "search")

	query := m.scope.Query
	cursor, done := appendCursor(ctx, loadType, state, func(ctx context.Context, postID string) (string, error) {
		key, err := m.store.SearchRemoteKey(ctx, query, postID)
		if err != nil {
			return "", err
		}
		return key.NextKey, nil
	})
	if done != nil {
		return *done
	}

	page, err := m.remote.Search(ctx, reddit.SearchRequest{
		Query:     query,
		Sort:      m.scope.Sort,
		Subreddit: m.scope.Subreddit,
		After:     cursor,
		Limit:     state.PageSize,
	})
	if err != nil {
		return paging.Failure(fmt.Errorf("failed to fetch search page: %w", err))
	}
	end := len(page.Links) == 0 || page.After == ""

	var pending []string
	err = m.store.InTx(ctx, func(tx Tx) error {
		if loadType == paging.Refresh {
			if err := tx.ClearSearch(ctx, query); err != nil {
				return err
			}
			if err := tx.SetScope(ctx, searchScopeName(query), m.scope.key()); err != nil {
				return err
			}
		}

		first, err := tx.NextSearchSortKey(ctx, query)
		if err != nil {
			return err
		}
		rows := mapLinks(page.Links, first)
		if err := tx.UpsertSearchPosts(ctx, rows); err != nil {
			return err
		}

		results := make([]SearchResult, 0, len(rows))
		keys := make([]SearchRemoteKey, 0, len(rows))
		for _, p := range rows {
			results = append(results, SearchResult{Query: query, PostID: p.ID, SortKey: p.SortKey})
			keys = append(keys, SearchRemoteKey{Query: query, PostID: p.ID, PrevKey: page.Before, NextKey: page.After})
		}
		if err := tx.UpsertSearchResults(ctx, results); err != nil {
			return err
		}
		if err := tx.UpsertSearchRemoteKeys(ctx, keys); err != nil {
			return err
		}

		pending, err = tx.InsertPlaceholderUsers(ctx, postAuthors(rows))
		return err
	})
	if err != nil {
		return paging.Failure(fmt.Errorf("failed to store search page: %w", err))
	}

	m.logger.Debug("search page stored",
		"query", query,
		"load_type", loadType.String(),
		"posts", len(page.Links),
		"end", end)

	m.enrich(pending)
	return paging.Success(end)
}
