package mediators

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"Readout/internal/core/paging"
	"Readout/internal/core/posts"
	"Readout/internal/reddit"
)

// base holds what every mediator shares.
type base struct {
	remote   Remote
	store    Store
	enricher AuthorEnricher
	logger   *slog.Logger
}

func newBase(remote Remote, store Store, enricher AuthorEnricher, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{remote: remote, store: store, enricher: enricher, logger: logger}
}

// recoverLoad turns a panic inside Load into a failed result.
func (b *base) recoverLoad(res *paging.MediatorResult, scope string) {
	if r := recover(); r != nil {
		b.logger.Error("mediator panicked",
			"scope", scope,
			"panic", r,
			"stack", string(debug.Stack()))
		*res = paging.Failure(fmt.Errorf("%s mediator panicked: %v", scope, r))
	}
}

// enrich hands placeholder authors to the enricher after commit.
func (b *base) enrich(names []string) {
	if b.enricher == nil || len(names) == 0 {
		return
	}
	b.enricher.EnrichAsync(names)
}

// appendCursor decides the remote cursor for a load. When the outcome is
// already known without fetching, done carries it.
func appendCursor(
	ctx context.Context,
	loadType paging.LoadType,
	state paging.PagingState,
	lookup func(ctx context.Context, postID string) (string, error),
) (cursor string, done *paging.MediatorResult) {
	decided := func(r paging.MediatorResult) (string, *paging.MediatorResult) { return "", &r }

	switch loadType {
	case paging.Refresh:
		return "", nil
	case paging.Prepend:
		return decided(paging.Success(true))
	}

	if state.LastItemID == "" {
		return decided(paging.Success(false))
	}
	next, err := lookup(ctx, state.LastItemID)
	if IsNoRemoteKey(err) {
		return decided(paging.Success(true))
	}
	if err != nil {
		return decided(paging.Failure(fmt.Errorf("failed to read remote key: %w", err)))
	}
	if next == "" {
		return decided(paging.Success(true))
	}
	return next, nil
}

// postAuthors returns the distinct non-deleted authors of rows, in order.
func postAuthors(rows []*posts.Post) []string {
	seen := make(map[string]struct{}, len(rows))
	var names []string
	for _, p := range rows {
		name := p.AuthorName()
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// mapLinks maps a page of links onto rows with consecutive sort keys starting
// at first. A link repeated within the page keeps its first position.
func mapLinks(links []reddit.Link, first int64) []*posts.Post {
	seen := make(map[string]struct{}, len(links))
	rows := make([]*posts.Post, 0, len(links))
	for _, link := range links {
		p := posts.FromRemote(link, first+int64(len(rows)))
		if p.ID == "" {
			continue
		}
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		rows = append(rows, p)
	}
	return rows
}
