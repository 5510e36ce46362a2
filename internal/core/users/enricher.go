package users

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	defaultEnrichConcurrency = 4
	defaultFailureTTL        = 10 * time.Minute
	defaultFailureCacheSize  = 1024
	defaultAsyncTimeout      = 30 * time.Second
)

// EnricherOptions configures an Enricher.
type EnricherOptions struct {
	Logger *slog.Logger

	// Concurrency bounds simultaneous profile fetches per Enrich call.
	Concurrency int

	// FailureTTL is how long a failed name is skipped before being retried.
	FailureTTL time.Duration

	// FailureCacheSize bounds the number of remembered failures.
	FailureCacheSize int

	// AsyncTimeout bounds one EnrichAsync batch.
	AsyncTimeout time.Duration
}

// Enricher upgrades placeholder user rows with fetched profiles.
// Concurrent requests for the same name share one fetch; the in-flight set and
// the failure cache belong to the Enricher, not to the package.
type Enricher struct {
	repo     Repository
	fetcher  ProfileFetcher
	logger   *slog.Logger
	failures *expirable.LRU[string, error]
	inflight singleflight.Group
	wg       sync.WaitGroup

	concurrency  int
	asyncTimeout time.Duration
}

// NewEnricher creates an Enricher.
func NewEnricher(repo Repository, fetcher ProfileFetcher, opts EnricherOptions) *Enricher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultEnrichConcurrency
	}
	if opts.FailureTTL <= 0 {
		opts.FailureTTL = defaultFailureTTL
	}
	if opts.FailureCacheSize <= 0 {
		opts.FailureCacheSize = defaultFailureCacheSize
	}
	if opts.AsyncTimeout <= 0 {
		opts.AsyncTimeout = defaultAsyncTimeout
	}

	return &Enricher{
		repo:         repo,
		fetcher:      fetcher,
		logger:       opts.Logger,
		failures:     expirable.NewLRU[string, error](opts.FailureCacheSize, nil, opts.FailureTTL),
		concurrency:  opts.Concurrency,
		asyncTimeout: opts.AsyncTimeout,
	}
}

// EnsureUser returns the cached user, fetching and storing the profile first
// if the row is missing or still a placeholder.
func (e *Enricher) EnsureUser(ctx context.Context, name string) (*User, error) {
	if err := ValidateUsername(name); err != nil {
		return nil, err
	}

	cached, err := e.repo.GetUser(ctx, name)
	switch {
	case err == nil && !cached.IsPlaceholder():
		return cached, nil
	case err != nil && !IsNotFound(err):
		return nil, fmt.Errorf("failed to load user %s: %w", name, err)
	}

	if prev, ok := e.failures.Get(name); ok {
		return nil, fmt.Errorf("%w: %s: %v", ErrProfileUnavailable, name, prev)
	}

	v, err, _ := e.inflight.Do(name, func() (any, error) {
		return e.fetch(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*User), nil
}

func (e *Enricher) fetch(ctx context.Context, name string) (*User, error) {
	account, err := e.fetcher.UserAbout(ctx, name)
	if err != nil {
		if ctx.Err() == nil {
			e.failures.Add(name, err)
		}
		return nil, fmt.Errorf("failed to fetch profile for %s: %w", name, err)
	}

	user := FromRemote(*account)
	// Keep the row keyed by the author name as it appears on posts
	user.Name = name
	if err := e.repo.UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to store profile for %s: %w", name, err)
	}
	return user, nil
}

// Enrich fetches the profiles of every placeholder in names with bounded concurrency.
// A failure for one name is logged and skipped; Enrich never fails as a whole.
func (e *Enricher) Enrich(ctx context.Context, names []string) {
	seen := make(map[string]struct{}, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, name := range names {
		if _, dup := seen[name]; dup || !Enrichable(name) {
			continue
		}
		seen[name] = struct{}{}

		g.Go(func() error {
			if _, err := e.EnsureUser(gctx, name); err != nil {
				e.logger.Debug("author enrichment skipped", "user", name, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// EnrichAsync runs Enrich in the background after the caller's transaction
// has committed. Use Wait to block until pending batches finish.
func (e *Enricher) EnrichAsync(names []string) {
	if len(names) == 0 {
		return
	}
	batch := append([]string(nil), names...)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.asyncTimeout)
		defer cancel()
		e.Enrich(ctx, batch)
	}()
}

// Wait blocks until all EnrichAsync batches have finished.
func (e *Enricher) Wait() {
	e.wg.Wait()
}
