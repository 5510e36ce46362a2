package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"Readout/internal/core/comments"
	"Readout/internal/core/mediators"
	"Readout/internal/core/paging"
	"Readout/internal/core/posts"
	"Readout/internal/core/subreddits"
	"Readout/internal/core/users"
	"Readout/internal/core/votes"
)

const (
	defaultPagerCacheSize = 128
	defaultPagerTTL       = 30 * time.Minute
)

// Config wires the repository to its collaborators.
type Config struct {
	Remote        Remote
	Posts         posts.Repository
	Comments      comments.Repository
	Users         users.Repository
	MediatorStore mediators.Store
	Votes         votes.Service
	Subreddits    subreddits.Service
	Enricher      Enricher
	Invalidator   paging.Invalidator
	Logger        *slog.Logger

	PageSize int
	// PagerCacheSize bounds the number of search and comment pagers kept alive.
	PagerCacheSize int
	// PagerTTL drops pagers that were not used for this long.
	PagerTTL time.Duration
}

type searchPager struct {
	pager    *paging.Pager[*posts.PostView]
	mediator *mediators.SearchMediator
	scope    mediators.SearchScope
}

type service struct {
	remote      Remote
	posts       posts.Repository
	comments    comments.Repository
	users       users.Repository
	store       mediators.Store
	votes       votes.Service
	subreddits  subreddits.Service
	enricher    Enricher
	invalidator paging.Invalidator
	logger      *slog.Logger

	searchPagers  *expirable.LRU[string, *searchPager]
	commentPagers *expirable.LRU[string, *paging.Pager[*comments.CommentView]]

	feed         *paging.Pager[*posts.PostView]
	feedMediator *mediators.FeedMediator
	feedScope    mediators.FeedScope
	pageSize     int

	feedMu    sync.Mutex
	searchMu  sync.Mutex
	commentMu sync.Mutex
}

// NewService creates the read-through repository.
func NewService(cfg Config) (Service, error) {
	switch {
	case cfg.Remote == nil:
		return nil, errors.New("reader: remote is required")
	case cfg.Posts == nil || cfg.Comments == nil || cfg.Users == nil || cfg.MediatorStore == nil:
		return nil, errors.New("reader: repositories are required")
	case cfg.Votes == nil || cfg.Subreddits == nil:
		return nil, errors.New("reader: vote and subreddit services are required")
	case cfg.Enricher == nil:
		return nil, errors.New("reader: enricher is required")
	case cfg.Invalidator == nil:
		return nil, errors.New("reader: invalidator is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = paging.DefaultPageSize
	}
	if cfg.PagerCacheSize <= 0 {
		cfg.PagerCacheSize = defaultPagerCacheSize
	}
	if cfg.PagerTTL <= 0 {
		cfg.PagerTTL = defaultPagerTTL
	}

	return &service{
		remote:        cfg.Remote,
		posts:         cfg.Posts,
		comments:      cfg.Comments,
		users:         cfg.Users,
		store:         cfg.MediatorStore,
		votes:         cfg.Votes,
		subreddits:    cfg.Subreddits,
		enricher:      cfg.Enricher,
		invalidator:   cfg.Invalidator,
		logger:        cfg.Logger,
		pageSize:      cfg.PageSize,
		searchPagers:  expirable.NewLRU[string, *searchPager](cfg.PagerCacheSize, nil, cfg.PagerTTL),
		commentPagers: expirable.NewLRU[string, *paging.Pager[*comments.CommentView]](cfg.PagerCacheSize, nil, cfg.PagerTTL),
	}, nil
}

func (s *service) pagerConfig(tables ...string) paging.Config {
	return paging.Config{
		PageSize:    s.pageSize,
		Tables:      tables,
		Invalidator: s.invalidator,
		Logger:      s.logger,
	}
}

func (s *service) FeedPager(scope mediators.FeedScope) *paging.Pager[*posts.PostView] {
	p, _ := s.feedPager(scope)
	return p
}

// feedPager returns the feed pager for scope and its mediator. Only one feed
// scope is stored at a time, so a new scope replaces the previous pager.
func (s *service) feedPager(scope mediators.FeedScope) (*paging.Pager[*posts.PostView], *mediators.FeedMediator) {
	m := mediators.NewFeedMediator(s.remote, s.store, s.enricher, scope, s.logger)
	scope = m.Scope()

	s.feedMu.Lock()
	defer s.feedMu.Unlock()

	if s.feed != nil && s.feedScope == scope {
		return s.feed, s.feedMediator
	}

	source := paging.SourceFunc[*posts.PostView](func(ctx context.Context, after int64, limit int) ([]*posts.PostView, error) {
		rows, err := s.posts.ListFeedPosts(ctx, after, limit)
		if err != nil {
			return nil, err
		}
		return s.postViews(ctx, rows)
	})
	s.feed = paging.NewPager[*posts.PostView](source, m, s.pagerConfig(posts.Table, users.Table))
	s.feedMediator = m
	s.feedScope = scope
	return s.feed, m
}

func (s *service) FeedPage(ctx context.Context, scope mediators.FeedScope, cursor paging.Cursor, limit int, refresh bool) (paging.Page[*posts.PostView], error) {
	p, m := s.feedPager(scope)
	stale, err := m.Stale(ctx)
	if err != nil {
		return paging.Page[*posts.PostView]{}, err
	}
	return readPage(ctx, p, cursor, limit, refresh, stale)
}

// readPage serves a page from p, refreshing first when asked to or when the
// stored rows belong to another scope. Rows of another scope are never
// returned, even when the refresh fails.
func readPage[T paging.Keyed](ctx context.Context, p *paging.Pager[T], cursor paging.Cursor, limit int, refresh, stale bool) (paging.Page[T], error) {
	if !refresh && !stale {
		return p.PageAfter(ctx, cursor, limit)
	}
	page, err := p.Refresh(ctx)
	if err != nil && stale {
		return paging.Page[T]{}, err
	}
	return page, err
}

func (s *service) SearchPager(scope mediators.SearchScope) (*paging.Pager[*posts.PostView], error) {
	sp, err := s.searchPager(scope)
	if err != nil {
		return nil, err
	}
	return sp.pager, nil
}

// searchPager keys pagers by query, since mappings are stored per query. A
// different sort or subreddit for the same query replaces the pager.
func (s *service) searchPager(scope mediators.SearchScope) (*searchPager, error) {
	m, err := mediators.NewSearchMediator(s.remote, s.store, s.enricher, scope, s.logger)
	if err != nil {
		return nil, err
	}
	scope = m.Scope()

	s.searchMu.Lock()
	defer s.searchMu.Unlock()

	if existing, ok := s.searchPagers.Get(scope.Query); ok && existing.scope == scope {
		return existing, nil
	}

	query := scope.Query
	source := paging.SourceFunc[*posts.PostView](func(ctx context.Context, after int64, limit int) ([]*posts.PostView, error) {
		rows, err := s.posts.ListSearchPosts(ctx, query, after, limit)
		if err != nil {
			return nil, err
		}
		return s.postViews(ctx, rows)
	})
	p := paging.NewPager[*posts.PostView](source, m,
		s.pagerConfig(posts.Table, mediators.SearchResultsTable, users.Table))
	sp := &searchPager{pager: p, mediator: m, scope: scope}
	s.searchPagers.Add(query, sp)
	return sp, nil
}

func (s *service) SearchPage(ctx context.Context, scope mediators.SearchScope, cursor paging.Cursor, limit int, refresh bool) (paging.Page[*posts.PostView], error) {
	sp, err := s.searchPager(scope)
	if err != nil {
		return paging.Page[*posts.PostView]{}, err
	}
	stale, err := sp.mediator.Stale(ctx)
	if err != nil {
		return paging.Page[*posts.PostView]{}, err
	}
	return readPage(ctx, sp.pager, cursor, limit, refresh, stale)
}

func (s *service) CommentPager(postID string) (*paging.Pager[*comments.CommentView], error) {
	m, err := mediators.NewCommentMediator(s.remote, s.store, s.enricher, postID, s.logger)
	if err != nil {
		return nil, err
	}

	s.commentMu.Lock()
	defer s.commentMu.Unlock()

	if p, ok := s.commentPagers.Get(postID); ok {
		return p, nil
	}

	source := paging.SourceFunc[*comments.CommentView](func(ctx context.Context, after int64, limit int) ([]*comments.CommentView, error) {
		rows, err := s.comments.ListComments(ctx, postID, after, limit)
		if err != nil {
			return nil, err
		}
		return s.commentViews(ctx, rows)
	})
	p := paging.NewPager[*comments.CommentView](source, m, s.pagerConfig(comments.Table, users.Table))
	s.commentPagers.Add(postID, p)
	return p, nil
}

func (s *service) CommentPage(ctx context.Context, postID string, cursor paging.Cursor, limit int, refresh bool) (paging.Page[*comments.CommentView], error) {
	p, err := s.CommentPager(postID)
	if err != nil {
		return paging.Page[*comments.CommentView]{}, err
	}
	if refresh {
		return p.Refresh(ctx)
	}
	return p.PageAfter(ctx, cursor, limit)
}

func (s *service) GetPost(ctx context.Context, id string) (*posts.PostView, error) {
	if err := posts.ValidateID(id); err != nil {
		return nil, err
	}
	p, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.postViews(ctx, []*posts.Post{p})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *service) getComment(ctx context.Context, id string) (*comments.CommentView, error) {
	c, err := s.comments.GetComment(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.commentViews(ctx, []*comments.Comment{c})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *service) ObservePost(ctx context.Context, id string) (<-chan *posts.PostView, error) {
	if err := posts.ValidateID(id); err != nil {
		return nil, err
	}
	return observe(ctx, s.invalidator, []string{posts.Table, users.Table}, s.logger,
		func(ctx context.Context) (*posts.PostView, error) { return s.GetPost(ctx, id) }), nil
}

func (s *service) ObserveComment(ctx context.Context, id string) (<-chan *comments.CommentView, error) {
	if err := comments.ValidateID(id); err != nil {
		return nil, err
	}
	return observe(ctx, s.invalidator, []string{comments.Table, users.Table}, s.logger,
		func(ctx context.Context) (*comments.CommentView, error) { return s.getComment(ctx, id) }), nil
}

// RefreshPost fetches the post and overlays it onto the cached row. On
// failure the cached row is left as it was.
func (s *service) RefreshPost(ctx context.Context, id string) (*posts.PostView, error) {
	if err := posts.ValidateID(id); err != nil {
		return nil, err
	}
	cached, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	fresh, err := s.remote.PostByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh post %s: %w", id, err)
	}

	updated := posts.Overlay(cached, *fresh)
	if err := s.posts.UpdatePost(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to store refreshed post %s: %w", id, err)
	}

	views, err := s.postViews(ctx, []*posts.Post{updated})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *service) VotePost(ctx context.Context, id string, dir votes.Direction) (*votes.State, error) {
	if err := posts.ValidateID(id); err != nil {
		return nil, err
	}
	return s.votes.Vote(ctx, id, dir)
}

func (s *service) VoteComment(ctx context.Context, id string, dir votes.Direction) (*votes.State, error) {
	if err := comments.ValidateID(id); err != nil {
		return nil, err
	}
	return s.votes.Vote(ctx, id, dir)
}

func (s *service) SetPostSaved(ctx context.Context, id string, saved bool) (*votes.State, error) {
	if err := posts.ValidateID(id); err != nil {
		return nil, err
	}
	return s.votes.SetSaved(ctx, id, saved)
}

func (s *service) SetCommentSaved(ctx context.Context, id string, saved bool) (*votes.State, error) {
	if err := comments.ValidateID(id); err != nil {
		return nil, err
	}
	return s.votes.SetSaved(ctx, id, saved)
}

func (s *service) EnsureUser(ctx context.Context, name string) (*users.UserView, error) {
	u, err := s.enricher.EnsureUser(ctx, name)
	if err != nil {
		return nil, err
	}
	return users.ToView(name, u), nil
}

func (s *service) SyncSubscriptions(ctx context.Context) (int, error) {
	return s.subreddits.SyncSubscriptions(ctx)
}

func (s *service) ListSubreddits(ctx context.Context, subscribedOnly bool) ([]*subreddits.Subreddit, error) {
	return s.subreddits.ListSubreddits(ctx, subscribedOnly)
}
