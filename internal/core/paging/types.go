// Package paging exposes the local store as a paginated read model and drives
// a remote mediator when the store runs out of rows.
package paging

import (
	"context"
	"fmt"
)

// Start is the anchor that reads from the first row of a scope.
// Sort keys are never negative.
const Start int64 = -1

// LoadType is the reason a mediator is asked to load.
type LoadType int

const (
	// Refresh discards the scope's remote state and loads from the first page.
	Refresh LoadType = iota
	// Prepend loads before the first item. None of the feeds support it.
	Prepend
	// Append continues from the last loaded item's stored cursor.
	Append
)

func (t LoadType) String() string {
	switch t {
	case Refresh:
		return "refresh"
	case Prepend:
		return "prepend"
	case Append:
		return "append"
	default:
		return fmt.Sprintf("LoadType(%d)", int(t))
	}
}

// PagingState describes what the pager has loaded so far.
type PagingState struct {
	// LastItemID is the id of the last loaded item, or "" when nothing is loaded.
	LastItemID string
	PageSize   int
	Loaded     int
}

// MediatorResult is the outcome of one mediator load.
type MediatorResult struct {
	Err                    error
	EndOfPaginationReached bool
}

// Success reports a completed load.
func Success(endOfPaginationReached bool) MediatorResult {
	return MediatorResult{EndOfPaginationReached: endOfPaginationReached}
}

// Failure reports a load error; the pager may retry later.
func Failure(err error) MediatorResult {
	return MediatorResult{Err: err}
}

// RemoteMediator keeps one scope of the local store in sync with the remote API.
// Load never panics and never returns a partially committed page.
type RemoteMediator interface {
	Load(ctx context.Context, loadType LoadType, state PagingState) MediatorResult
}

// Keyed is implemented by rows that can be paged by sort key.
type Keyed interface {
	PagingKey() (sortKey int64, id string)
}

// Source reads one scope of the local store: rows with sort key greater than
// after, ascending, at most limit rows.
type Source[T Keyed] interface {
	Load(ctx context.Context, after int64, limit int) ([]T, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T Keyed] func(ctx context.Context, after int64, limit int) ([]T, error)

// Load calls f.
func (f SourceFunc[T]) Load(ctx context.Context, after int64, limit int) ([]T, error) {
	return f(ctx, after, limit)
}

// Invalidator notifies subscribers when any of the given tables changes.
type Invalidator interface {
	Subscribe(tables ...string) (<-chan struct{}, func())
}

// Page is one page read from the store.
type Page[T Keyed] struct {
	Items []T
	// NextCursor continues after the last item; empty when there are no items.
	NextCursor string
	// EndReached is set when the store has no more rows and the mediator
	// reported the end of the remote listing.
	EndReached bool
}

// LoadState is the outcome of the pager's most recent load.
type LoadState struct {
	Err                    error
	EndOfPaginationReached bool
}
