package mediators_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"Readout/internal/core/mediators"
	"Readout/internal/core/paging"
	"Readout/internal/core/posts"
	"Readout/internal/core/users"
	"Readout/internal/db/localstore"
	"Readout/internal/reddit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) Listing(ctx context.Context, req reddit.ListingRequest) (*reddit.LinkPage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reddit.LinkPage), args.Error(1)
}

func (m *mockRemote) Search(ctx context.Context, req reddit.SearchRequest) (*reddit.LinkPage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reddit.LinkPage), args.Error(1)
}

func (m *mockRemote) CommentTree(ctx context.Context, postID string) (*reddit.CommentTree, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reddit.CommentTree), args.Error(1)
}

type recordingEnricher struct {
	mu    sync.Mutex
	names []string
}

func (r *recordingEnricher) EnrichAsync(names []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, names...)
}

type fixture struct {
	store    *localstore.Store
	ms       mediators.Store
	posts    posts.Repository
	remote   *mockRemote
	enricher *recordingEnricher
	logger   *slog.Logger
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := localstore.Open(ctx, localstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, localstore.Migrate(ctx, db, localstore.DriverSQLite))
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := localstore.New(db, logger)
	return &fixture{
		store:    store,
		ms:       localstore.NewMediatorStore(store),
		posts:    localstore.NewPostRepository(store),
		remote:   &mockRemote{},
		enricher: &recordingEnricher{},
		logger:   logger,
	}
}

func (f *fixture) feed(scope mediators.FeedScope) *mediators.FeedMediator {
	return mediators.NewFeedMediator(f.remote, f.ms, f.enricher, scope, f.logger)
}

func (f *fixture) search(t *testing.T, query string) *mediators.SearchMediator {
	m, err := mediators.NewSearchMediator(f.remote, f.ms, f.enricher, mediators.SearchScope{Query: query}, f.logger)
	require.NoError(t, err)
	return m
}

func (f *fixture) feedIDs(t *testing.T) ([]string, []int64) {
	rows, err := f.posts.ListFeedPosts(context.Background(), paging.Start, 100)
	require.NoError(t, err)
	return postIDs(rows)
}

func (f *fixture) searchIDs(t *testing.T, query string) ([]string, []int64) {
	rows, err := f.posts.ListSearchPosts(context.Background(), query, paging.Start, 100)
	require.NoError(t, err)
	return postIDs(rows)
}

func postIDs(rows []*posts.Post) ([]string, []int64) {
	var ids []string
	var keys []int64
	for _, p := range rows {
		ids = append(ids, p.ID)
		keys = append(keys, p.SortKey)
	}
	return ids, keys
}

func intPtr(i int) *int { return &i }

func link(id, author string) reddit.Link {
	return reddit.Link{ID: id, Name: "t3_" + id, Title: "post " + id, Author: author, Score: intPtr(1)}
}

func linkPage(after string, links ...reddit.Link) *reddit.LinkPage {
	return &reddit.LinkPage{Links: links, After: after}
}

func TestFeedMediator_RefreshThenAppend(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.feed(mediators.FeedScope{Subreddit: "golang"})

	f.remote.On("Listing", mock.Anything, reddit.ListingRequest{Subreddit: "golang", Sort: "hot", Limit: 3}).
		Return(linkPage("t3_c", link("a", "alice"), link("b", "bob"), link("c", "alice")), nil).Once()

	res := m.Load(ctx, paging.Refresh, paging.PagingState{PageSize: 3})
	require.NoError(t, res.Err)
	assert.False(t, res.EndOfPaginationReached)

	ids, keys := f.feedIDs(t)
	assert.Equal(t, []string{"t3_a", "t3_b", "t3_c"}, ids)
	assert.Equal(t, []int64{0, 1, 2}, keys)

	key, err := f.ms.RemoteKey(ctx, "t3_b")
	require.NoError(t, err)
	assert.Equal(t, "t3_c", key.NextKey)

	f.remote.On("Listing", mock.Anything, reddit.ListingRequest{Subreddit: "golang", Sort: "hot", After: "t3_c", Limit: 3}).
		Return(linkPage("", link("d", "carol"), link("e", users.DeletedAuthor)), nil).Once()

	res = m.Load(ctx, paging.Append, paging.PagingState{LastItemID: "t3_c", PageSize: 3})
	require.NoError(t, res.Err)
	assert.True(t, res.EndOfPaginationReached)

	ids, keys = f.feedIDs(t)
	assert.Equal(t, []string{"t3_a", "t3_b", "t3_c", "t3_d", "t3_e"}, ids)
	assert.Equal(t, []int64{0, 1, 2, 3, 4}, keys, "sort keys keep increasing across appends")

	// The last page stored an empty next cursor
	res = m.Load(ctx, paging.Append, paging.PagingState{LastItemID: "t3_e", PageSize: 3})
	require.NoError(t, res.Err)
	assert.True(t, res.EndOfPaginationReached)

	assert.Equal(t, []string{"alice", "bob", "carol"}, f.enricher.names)
	f.remote.AssertExpectations(t)
}

func TestFeedMediator_RefreshTruncatesPosts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.feed(mediators.FeedScope{})

	f.remote.On("Listing", mock.Anything, mock.Anything).
		Return(linkPage("t3_b", link("a", ""), link("b", "")), nil).Once()
	require.NoError(t, m.Load(ctx, paging.Refresh, paging.PagingState{PageSize: 2}).Err)

	f.remote.On("Listing", mock.Anything, mock.Anything).
		Return(linkPage("t3_z", link("z", "")), nil).Once()
	require.NoError(t, m.Load(ctx, paging.Refresh, paging.PagingState{PageSize: 2}).Err)

	ids, keys := f.feedIDs(t)
	assert.Equal(t, []string{"t3_z"}, ids)
	assert.Equal(t, []int64{0}, keys)

	_, err := f.ms.RemoteKey(ctx, "t3_a")
	assert.True(t, mediators.IsNoRemoteKey(err))
}

func TestFeedMediator_AppendWithoutFetching(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.feed(mediators.FeedScope{})

	res := m.Load(ctx, paging.Append, paging.PagingState{PageSize: 10})
	require.NoError(t, res.Err)
	assert.False(t, res.EndOfPaginationReached, "nothing loaded yet")

	res = m.Load(ctx, paging.Append, paging.PagingState{LastItemID: "t3_unknown", PageSize: 10})
	require.NoError(t, res.Err)
	assert.True(t, res.EndOfPaginationReached, "no stored key means the end")

	res = m.Load(ctx, paging.Prepend, paging.PagingState{PageSize: 10})
	require.NoError(t, res.Err)
	assert.True(t, res.EndOfPaginationReached)

	f.remote.AssertNotCalled(t, "Listing", mock.Anything, mock.Anything)
}

func TestFeedMediator_AppendAfterLastPage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.feed(mediators.FeedScope{})

	f.remote.On("Listing", mock.Anything, reddit.ListingRequest{Sort: "hot", Limit: 2}).
		Return(linkPage("tok1", link("a", ""), link("b", "")), nil).Once()
	res := m.Load(ctx, paging.Refresh, paging.PagingState{PageSize: 2})
	require.NoError(t, res.Err)
	assert.False(t, res.EndOfPaginationReached)

	ids, keys := f.feedIDs(t)
	assert.Equal(t, []string{"t3_a", "t3_b"}, ids)
	assert.Equal(t, []int64{0, 1}, keys)
	for _, id := range ids {
		key, err := f.ms.RemoteKey(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "tok1", key.NextKey, id)
	}

	f.remote.On("Listing", mock.Anything, reddit.ListingRequest{Sort: "hot", After: "tok1", Limit: 2}).
		Return(linkPage(""), nil).Once()
	res = m.Load(ctx, paging.Append, paging.PagingState{LastItemID: "t3_b", PageSize: 2})
	require.NoError(t, res.Err)
	assert.True(t, res.EndOfPaginationReached)

	ids, _ = f.feedIDs(t)
	assert.Len(t, ids, 2)
	f.remote.AssertExpectations(t)
}

func TestFeedMediator_Stale(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	golang := f.feed(mediators.FeedScope{Subreddit: "golang"})
	rust := f.feed(mediators.FeedScope{Subreddit: "rust"})

	stale, err := golang.Stale(ctx)
	require.NoError(t, err)
	assert.True(t, stale, "nothing recorded yet")

	f.remote.On("Listing", mock.Anything, mock.Anything).
		Return(linkPage("", link("a", "")), nil).Once()
	require.NoError(t, golang.Load(ctx, paging.Refresh, paging.PagingState{PageSize: 5}).Err)

	stale, err = golang.Stale(ctx)
	require.NoError(t, err)
	assert.False(t, stale)

	stale, err = f.feed(mediators.FeedScope{Subreddit: "Golang", Sort: "hot"}).Stale(ctx)
	require.NoError(t, err)
	assert.False(t, stale, "subreddit names are case insensitive")

	stale, err = rust.Stale(ctx)
	require.NoError(t, err)
	assert.True(t, stale)

	stale, err = f.feed(mediators.FeedScope{Subreddit: "golang", Sort: "top", Time: "week"}).Stale(ctx)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestFeedMediator_FailedRefreshKeepsScope(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.remote.On("Listing", mock.Anything, reddit.ListingRequest{Subreddit: "golang", Sort: "hot", Limit: 5}).
		Return(linkPage("", link("a", "")), nil).Once()
	require.NoError(t, f.feed(mediators.FeedScope{Subreddit: "golang"}).Load(ctx, paging.Refresh, paging.PagingState{PageSize: 5}).Err)

	rust := f.feed(mediators.FeedScope{Subreddit: "rust"})
	f.remote.On("Listing", mock.Anything, reddit.ListingRequest{Subreddit: "rust", Sort: "hot", Limit: 5}).
		Return(nil, reddit.ErrUnavailable).Once()
	require.Error(t, rust.Load(ctx, paging.Refresh, paging.PagingState{PageSize: 5}).Err)

	stale, err := rust.Stale(ctx)
	require.NoError(t, err)
	assert.True(t, stale, "the stored rows still belong to golang")
}

func TestSearchMediator_Stale(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	newest, err := mediators.NewSearchMediator(f.remote, f.ms, nil, mediators.SearchScope{Query: "go", Sort: "new"}, f.logger)
	require.NoError(t, err)

	f.remote.On("Search", mock.Anything, mock.Anything).
		Return(linkPage("", link("a", "")), nil).Once()
	require.NoError(t, newest.Load(ctx, paging.Refresh, paging.PagingState{PageSize: 5}).Err)

	stale, err := newest.Stale(ctx)
	require.NoError(t, err)
	assert.False(t, stale)

	stale, err = f.search(t, "go").Stale(ctx)
	require.NoError(t, err)
	assert.True(t, stale, "relevance results were never stored")

	stale, err = f.search(t, "rust").Stale(ctx)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestFeedMediator_EmptyPageEnds(t *testing.T) {
	f := setup(t)
	f.remote.On("Listing", mock.Anything, mock.Anything).Return(linkPage("t3_x"), nil)

	res := f.feed(mediators.FeedScope{}).Load(context.Background(), paging.Refresh, paging.PagingState{PageSize: 5})
	require.NoError(t, res.Err)
	assert.True(t, res.EndOfPaginationReached)
}

func TestFeedMediator_RemoteErrorLeavesStore(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.feed(mediators.FeedScope{})

	f.remote.On("Listing", mock.Anything, mock.Anything).
		Return(linkPage("t3_a", link("a", "")), nil).Once()
	require.NoError(t, m.Load(ctx, paging.Refresh, paging.PagingState{PageSize: 1}).Err)

	f.remote.On("Listing", mock.Anything, mock.Anything).Return(nil, reddit.ErrUnavailable).Once()
	res := m.Load(ctx, paging.Refresh, paging.PagingState{PageSize: 1})
	assert.ErrorIs(t, res.Err, reddit.ErrUnavailable)

	ids, _ := f.feedIDs(t)
	assert.Equal(t, []string{"t3_a"}, ids, "a failed refresh does not truncate")
}

func TestFeedMediator_PanicBecomesFailure(t *testing.T) {
	f := setup(t)
	f.remote.On("Listing", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("kaboom") })

	res := f.feed(mediators.FeedScope{}).Load(context.Background(), paging.Refresh, paging.PagingState{PageSize: 1})
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "kaboom")
}

func TestSearchMediator_RefreshIsolation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Feed owns t3_a at key 0
	f.remote.On("Listing", mock.Anything, mock.Anything).
		Return(linkPage("", link("a", "")), nil).Once()
	require.NoError(t, f.feed(mediators.FeedScope{}).Load(ctx, paging.Refresh, paging.PagingState{PageSize: 5}).Err)

	goSearch := f.search(t, "go")
	rustSearch := f.search(t, "rust")

	f.remote.On("Search", mock.Anything, reddit.SearchRequest{Query: "go", Sort: "relevance", Limit: 5}).
		Return(linkPage("t3_b", link("b", "bob"), link("a", "")), nil)
	f.remote.On("Search", mock.Anything, reddit.SearchRequest{Query: "rust", Sort: "relevance", Limit: 5}).
		Return(linkPage("", link("r", "")), nil)

	require.NoError(t, goSearch.Load(ctx, paging.Refresh, paging.PagingState{PageSize: 5}).Err)
	require.NoError(t, rustSearch.Load(ctx, paging.Refresh, paging.PagingState{PageSize: 5}).Err)

	ids, keys := f.searchIDs(t, "go")
	assert.Equal(t, []string{"t3_b", "t3_a"}, ids)
	assert.Equal(t, []int64{mediators.SearchSortKeyOffset, mediators.SearchSortKeyOffset + 1}, keys)

	// Refreshing one query leaves the other query and the feed untouched
	require.NoError(t, goSearch.Load(ctx, paging.Refresh, paging.PagingState{PageSize: 5}).Err)

	ids, _ = f.searchIDs(t, "rust")
	assert.Equal(t, []string{"t3_r"}, ids)

	feedIDs, feedKeys := f.feedIDs(t)
	assert.Equal(t, []string{"t3_a"}, feedIDs)
	assert.Equal(t, []int64{0}, feedKeys, "search never moves a feed post")

	ids, keys = f.searchIDs(t, "go")
	assert.Equal(t, []string{"t3_b", "t3_a"}, ids)
	assert.Equal(t, []int64{mediators.SearchSortKeyOffset, mediators.SearchSortKeyOffset + 1}, keys)
}

func TestSearchMediator_Append(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.search(t, "go")

	f.remote.On("Search", mock.Anything, reddit.SearchRequest{Query: "go", Sort: "relevance", Limit: 1}).
		Return(linkPage("t3_a", link("a", "")), nil).Once()
	f.remote.On("Search", mock.Anything, reddit.SearchRequest{Query: "go", Sort: "relevance", After: "t3_a", Limit: 1}).
		Return(linkPage("", link("b", "")), nil).Once()

	require.NoError(t, m.Load(ctx, paging.Refresh, paging.PagingState{PageSize: 1}).Err)
	res := m.Load(ctx, paging.Append, paging.PagingState{LastItemID: "t3_a", PageSize: 1})
	require.NoError(t, res.Err)
	assert.True(t, res.EndOfPaginationReached)

	_, keys := f.searchIDs(t, "go")
	assert.Equal(t, []int64{mediators.SearchSortKeyOffset, mediators.SearchSortKeyOffset + 1}, keys)

	// Search-only posts stay out of the feed
	ids, _ := f.feedIDs(t)
	assert.Empty(t, ids)
	f.remote.AssertExpectations(t)
}

func TestNewSearchMediator_RequiresQuery(t *testing.T) {
	f := setup(t)
	_, err := mediators.NewSearchMediator(f.remote, f.ms, nil, mediators.SearchScope{Query: "  "}, nil)
	assert.ErrorIs(t, err, mediators.ErrInvalidScope)
}

func commentThings(t *testing.T, raw string) []reddit.Thing {
	t.Helper()
	var things []reddit.Thing
	require.NoError(t, json.Unmarshal([]byte(raw), &things))
	return things
}

func TestCommentMediator_Refresh(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Cache the post with a local vote
	f.remote.On("Listing", mock.Anything, mock.Anything).
		Return(linkPage("", link("p", "op")), nil).Once()
	require.NoError(t, f.feed(mediators.FeedScope{}).Load(ctx, paging.Refresh, paging.PagingState{PageSize: 5}).Err)
	cached, err := f.posts.GetPost(ctx, "t3_p")
	require.NoError(t, err)
	liked := true
	cached.Likes = &liked
	cached.Score = 2
	require.NoError(t, f.posts.UpdatePost(ctx, cached))

	fresh := link("p", "op")
	fresh.Score = intPtr(50)
	fresh.Title = "edited title"
	tree := &reddit.CommentTree{
		Post: &fresh,
		Children: commentThings(t, `[
			{"kind":"t1","data":{"id":"c1","author":"alice","body":"top","replies":
				{"kind":"Listing","data":{"children":[{"kind":"t1","data":{"id":"c2","author":"bob","body":"reply","replies":""}}]}}}},
			{"kind":"more","data":{"id":"m"}}
		]`),
	}
	f.remote.On("CommentTree", mock.Anything, "t3_p").Return(tree, nil)

	m, err := mediators.NewCommentMediator(f.remote, f.ms, f.enricher, "t3_p", f.logger)
	require.NoError(t, err)

	res := m.Load(ctx, paging.Refresh, paging.PagingState{PageSize: 50})
	require.NoError(t, res.Err)
	assert.True(t, res.EndOfPaginationReached)

	repo := localstore.NewCommentRepository(f.store)
	rows, err := repo.ListComments(ctx, "t3_p", paging.Start, 50)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "t1_c1", rows[0].ID)
	assert.Equal(t, 1, rows[0].ReplyCount)
	assert.Equal(t, "t1_c2", rows[1].ID)
	assert.Equal(t, "t1_c1", *rows[1].ParentID)
	assert.Equal(t, 1, rows[1].Depth)

	post, err := f.posts.GetPost(ctx, "t3_p")
	require.NoError(t, err)
	assert.Equal(t, "edited title", post.Title)
	assert.Equal(t, 50, post.Score)
	assert.Equal(t, int64(0), post.SortKey)
	require.NotNil(t, post.Likes)
	assert.True(t, *post.Likes, "local vote state survives the refresh")

	assert.Contains(t, f.enricher.names, "alice")
	assert.Contains(t, f.enricher.names, "bob")

	// A second refresh places the same rows after the first ones
	require.NoError(t, m.Load(ctx, paging.Refresh, paging.PagingState{PageSize: 50}).Err)
	rows, err = repo.ListComments(ctx, "t3_p", paging.Start, 50)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []int64{2, 3}, []int64{rows[0].SortKey, rows[1].SortKey})
	assert.Equal(t, "t1_c1", *rows[1].ParentID)
}

func TestCommentMediator_OnlyRefreshFetches(t *testing.T) {
	f := setup(t)
	m, err := mediators.NewCommentMediator(f.remote, f.ms, nil, "t3_p", nil)
	require.NoError(t, err)

	for _, lt := range []paging.LoadType{paging.Append, paging.Prepend} {
		res := m.Load(context.Background(), lt, paging.PagingState{LastItemID: "t1_x"})
		require.NoError(t, res.Err)
		assert.True(t, res.EndOfPaginationReached)
	}
	f.remote.AssertNotCalled(t, "CommentTree", mock.Anything, mock.Anything)
}

func TestCommentMediator_Failure(t *testing.T) {
	f := setup(t)
	f.remote.On("CommentTree", mock.Anything, "t3_p").Return(nil, errors.New("offline"))

	m, err := mediators.NewCommentMediator(f.remote, f.ms, nil, "t3_p", nil)
	require.NoError(t, err)
	res := m.Load(context.Background(), paging.Refresh, paging.PagingState{})
	require.Error(t, res.Err)
	assert.False(t, res.EndOfPaginationReached)

	_, err = mediators.NewCommentMediator(f.remote, f.ms, nil, "t1_notapost", nil)
	assert.ErrorIs(t, err, mediators.ErrInvalidScope)
}

func TestPager_OverFeedMediator(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := f.feed(mediators.FeedScope{})

	f.remote.On("Listing", mock.Anything, reddit.ListingRequest{Sort: "hot", Limit: 2}).
		Return(linkPage("t3_b", link("a", ""), link("b", "")), nil).Once()
	f.remote.On("Listing", mock.Anything, reddit.ListingRequest{Sort: "hot", After: "t3_b", Limit: 2}).
		Return(linkPage("", link("c", "")), nil).Once()

	source := paging.SourceFunc[*posts.Post](f.posts.ListFeedPosts)
	p := paging.NewPager[*posts.Post](source, m, paging.Config{PageSize: 2, Logger: f.logger})

	page, err := p.Refresh(ctx)
	require.NoError(t, err)
	ids, _ := postIDs(page.Items)
	assert.Equal(t, []string{"t3_a", "t3_b"}, ids)

	page, err = p.Append(ctx)
	require.NoError(t, err)
	ids, _ = postIDs(page.Items)
	assert.Equal(t, []string{"t3_c"}, ids)
	assert.True(t, page.EndReached)
	f.remote.AssertExpectations(t)
}
