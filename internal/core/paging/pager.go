package paging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultPageSize is used when Config.PageSize is not set.
const DefaultPageSize = 25

// Config configures a Pager.
type Config struct {
	Invalidator Invalidator
	Logger      *slog.Logger
	// Tables are the store tables whose changes re-emit Watch snapshots.
	Tables   []string
	PageSize int
}

// Pager composes a store Source with a RemoteMediator. Reads always come from
// the store; the mediator is only asked to load when the store runs short or
// on an explicit refresh. At most one load runs at a time per pager.
//
// Methods returning a Page alongside an error still fill the page with what
// the store holds, so callers can keep showing cached rows.
type Pager[T Keyed] struct {
	source      Source[T]
	mediator    RemoteMediator
	invalidator Invalidator
	logger      *slog.Logger
	tables      []string
	items       []T
	state       LoadState
	pageSize    int
	mu          sync.Mutex
}

// NewPager creates a pager over source driven by mediator.
func NewPager[T Keyed](source Source[T], mediator RemoteMediator, cfg Config) *Pager[T] {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pager[T]{
		source:      source,
		mediator:    mediator,
		invalidator: cfg.Invalidator,
		logger:      cfg.Logger,
		tables:      cfg.Tables,
		pageSize:    cfg.PageSize,
	}
}

// PageSize returns the configured page size.
func (p *Pager[T]) PageSize() int {
	return p.pageSize
}

// Refresh asks the mediator to reload the scope from its first remote page
// and resets the loaded window to the first store page.
func (p *Pager[T]) Refresh(ctx context.Context) (Page[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := p.load(ctx, Refresh, PagingState{PageSize: p.pageSize})
	p.state = LoadState{Err: res.Err, EndOfPaginationReached: res.EndOfPaginationReached}

	items, err := p.source.Load(ctx, Start, p.pageSize)
	if err != nil {
		return Page[T]{}, fmt.Errorf("failed to read first page: %w", err)
	}
	p.items = items

	page := newPage(items, res.Err == nil && res.EndOfPaginationReached && len(items) < p.pageSize)
	return page, res.Err
}

// Append loads the page after the current window and extends it.
func (p *Pager[T]) Append(ctx context.Context) (Page[T], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	after, lastID := Start, ""
	if n := len(p.items); n > 0 {
		after, lastID = p.items[n-1].PagingKey()
	}

	page, end, err := p.pageAfter(ctx, after, lastID, p.pageSize, len(p.items), !p.state.EndOfPaginationReached)
	p.items = append(p.items, page.Items...)
	p.state = LoadState{Err: err, EndOfPaginationReached: end || p.state.EndOfPaginationReached}
	return page, err
}

// PageAfter reads the page following cursor without touching the pager's
// window. It serves stateless callers that carry the cursor themselves.
func (p *Pager[T]) PageAfter(ctx context.Context, cursor Cursor, limit int) (Page[T], error) {
	if limit <= 0 {
		limit = p.pageSize
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	page, end, err := p.pageAfter(ctx, cursor.SortKey, cursor.ID, limit, 0, true)
	if err == nil && end {
		p.state.EndOfPaginationReached = true
	}
	return page, err
}

// pageAfter reads up to limit rows after the anchor. When the store returns a
// short page and remote is allowed, the mediator is asked to append (or to
// refresh, when the scope is empty) and the store is read again.
func (p *Pager[T]) pageAfter(ctx context.Context, after int64, lastID string, limit, loaded int, remote bool) (Page[T], bool, error) {
	items, err := p.source.Load(ctx, after, limit)
	if err != nil {
		return Page[T]{}, false, fmt.Errorf("failed to read page: %w", err)
	}
	if len(items) >= limit {
		return newPage(items, false), false, nil
	}
	if !remote {
		return newPage(items, true), true, nil
	}

	loadType := Append
	if after == Start && len(items) == 0 {
		loadType = Refresh
	}
	if n := len(items); n > 0 {
		_, lastID = items[n-1].PagingKey()
	}

	res := p.load(ctx, loadType, PagingState{LastItemID: lastID, PageSize: limit, Loaded: loaded + len(items)})
	if res.Err != nil {
		return newPage(items, false), false, res.Err
	}

	items, err = p.source.Load(ctx, after, limit)
	if err != nil {
		return Page[T]{}, false, fmt.Errorf("failed to read page: %w", err)
	}
	end := res.EndOfPaginationReached && len(items) < limit
	return newPage(items, end), end, nil
}

// load calls the mediator, converting a panic into a load error.
func (p *Pager[T]) load(ctx context.Context, loadType LoadType, state PagingState) (res MediatorResult) {
	defer func() {
		if r := recover(); r != nil {
			res = Failure(fmt.Errorf("mediator %s panicked: %v", loadType, r))
		}
	}()

	res = p.mediator.Load(ctx, loadType, state)
	if res.Err != nil {
		p.logger.Warn("mediator load failed",
			"load_type", loadType.String(),
			"last_item", state.LastItemID,
			"error", res.Err)
	}
	return res
}

// Snapshot re-reads the currently loaded window from the store.
func (p *Pager[T]) Snapshot(ctx context.Context) ([]T, error) {
	p.mu.Lock()
	limit := max(len(p.items), p.pageSize)
	p.mu.Unlock()

	items, err := p.source.Load(ctx, Start, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return items, nil
}

// Items returns a copy of the loaded window as of the last load.
func (p *Pager[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]T(nil), p.items...)
}

// State returns the outcome of the most recent load.
func (p *Pager[T]) State() LoadState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Watch emits the current snapshot, then a fresh snapshot each time one of the
// pager's tables changes. The channel is closed when ctx is done.
// Changes that arrive while a snapshot is being delivered are coalesced.
func (p *Pager[T]) Watch(ctx context.Context) <-chan []T {
	out := make(chan []T, 1)

	var changes <-chan struct{}
	unsubscribe := func() {}
	if p.invalidator != nil {
		changes, unsubscribe = p.invalidator.Subscribe(p.tables...)
	}

	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			items, err := p.Snapshot(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.logger.Warn("watch snapshot failed", "error", err)
			} else {
				select {
				case out <- items:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-changes:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func newPage[T Keyed](items []T, end bool) Page[T] {
	page := Page[T]{Items: items, EndReached: end}
	if n := len(items); n > 0 {
		page.NextCursor = EncodeCursor(items[n-1].PagingKey())
	}
	return page
}
