package subreddits

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"Readout/internal/reddit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) SubscribedSubreddits(ctx context.Context, after string) (*reddit.SubredditPage, error) {
	args := m.Called(ctx, after)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reddit.SubredditPage), args.Error(1)
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) GetSubreddit(ctx context.Context, id string) (*Subreddit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Subreddit), args.Error(1)
}

func (m *mockRepository) ListSubreddits(ctx context.Context, subscribedOnly bool) ([]*Subreddit, error) {
	args := m.Called(ctx, subscribedOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Subreddit), args.Error(1)
}

func (m *mockRepository) ReplaceSubscribed(ctx context.Context, subs []*Subreddit) error {
	args := m.Called(ctx, subs)
	return args.Error(0)
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSyncSubscriptions_PagesAndReplaces(t *testing.T) {
	fetcher := &mockFetcher{}
	repo := &mockRepository{}

	fetcher.On("SubscribedSubreddits", mock.Anything, "").Return(&reddit.SubredditPage{
		Subreddits: []reddit.Subreddit{
			{Name: "t5_1", DisplayName: "golang", CommunityIcon: "https://i.example/go.png?a=1&amp;b=2"},
			{Name: "t5_2", DisplayName: "rust", IconImg: "https://i.example/rust.png", Over18: true},
		},
		After: "t5_2",
	}, nil)
	fetcher.On("SubscribedSubreddits", mock.Anything, "t5_2").Return(&reddit.SubredditPage{
		Subreddits: []reddit.Subreddit{
			{Name: "t5_2", DisplayName: "rust"},
			{Name: "t5_3", DisplayName: "zig"},
		},
	}, nil)

	repo.On("ReplaceSubscribed", mock.Anything, mock.MatchedBy(func(subs []*Subreddit) bool {
		if len(subs) != 3 {
			return false
		}
		return subs[0].IconURL == "https://i.example/go.png?a=1&b=2" &&
			subs[1].NSFW && subs[2].ID == "t5_3" && subs[0].Subscribed
	})).Return(nil)

	svc := NewService(repo, fetcher, quiet())
	n, err := svc.SyncSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	fetcher.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestSyncSubscriptions_FetchFailureKeepsCache(t *testing.T) {
	fetcher := &mockFetcher{}
	repo := &mockRepository{}
	fetcher.On("SubscribedSubreddits", mock.Anything, "").Return(&reddit.SubredditPage{
		Subreddits: []reddit.Subreddit{{Name: "t5_1"}},
		After:      "t5_1",
	}, nil)
	fetcher.On("SubscribedSubreddits", mock.Anything, "t5_1").Return(nil, errors.New("boom"))

	svc := NewService(repo, fetcher, quiet())
	_, err := svc.SyncSubscriptions(context.Background())
	require.Error(t, err)
	repo.AssertNotCalled(t, "ReplaceSubscribed", mock.Anything, mock.Anything)
}

func TestSyncSubscriptions_StopsOnRepeatedCursor(t *testing.T) {
	fetcher := &mockFetcher{}
	repo := &mockRepository{}
	fetcher.On("SubscribedSubreddits", mock.Anything, "").Return(&reddit.SubredditPage{After: "x"}, nil).Once()
	fetcher.On("SubscribedSubreddits", mock.Anything, "x").Return(&reddit.SubredditPage{After: "x"}, nil).Once()
	repo.On("ReplaceSubscribed", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo, fetcher, quiet())
	n, err := svc.SyncSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
