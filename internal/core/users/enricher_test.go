package users

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"Readout/internal/reddit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProfileFetcher struct {
	mock.Mock
}

func (m *mockProfileFetcher) UserAbout(ctx context.Context, name string) (*reddit.Account, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reddit.Account), args.Error(1)
}

type memoryRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemoryRepo(users ...*User) *memoryRepo {
	r := &memoryRepo{users: make(map[string]*User)}
	for _, u := range users {
		r.users[u.Name] = u
	}
	return r
}

func (r *memoryRepo) GetUser(_ context.Context, name string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[name]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memoryRepo) GetUsers(ctx context.Context, names []string) (map[string]*User, error) {
	out := make(map[string]*User)
	for _, n := range names {
		if u, err := r.GetUser(ctx, n); err == nil {
			out[n] = u
		}
	}
	return out, nil
}

func (r *memoryRepo) UpsertUser(_ context.Context, user *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.Name] = &cp
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnsureUser_FetchesPlaceholder(t *testing.T) {
	repo := newMemoryRepo(Placeholder("alice"))
	fetcher := &mockProfileFetcher{}
	fetcher.On("UserAbout", mock.Anything, "alice").
		Return(&reddit.Account{Name: "alice", IconImg: "https://i.example/a.png?x=1&amp;y=2"}, nil).Once()

	e := NewEnricher(repo, fetcher, EnricherOptions{Logger: quietLogger()})

	u, err := e.EnsureUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "https://i.example/a.png?x=1&y=2", u.IconURL)
	assert.False(t, repo.users["alice"].IsPlaceholder())

	// Populated rows are never fetched again
	_, err = e.EnsureUser(context.Background(), "alice")
	require.NoError(t, err)
	fetcher.AssertExpectations(t)
}

func TestEnsureUser_DeduplicatesConcurrentFetches(t *testing.T) {
	repo := newMemoryRepo()
	fetcher := &mockProfileFetcher{}
	release := make(chan time.Time)
	fetcher.On("UserAbout", mock.Anything, "bob").
		WaitUntil(release).
		Return(&reddit.Account{Name: "bob", SnoovatarImg: "https://i.example/snoo.png"}, nil).Once()

	e := NewEnricher(repo, fetcher, EnricherOptions{Logger: quietLogger()})

	var wg sync.WaitGroup
	results := make([]*User, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := e.EnsureUser(context.Background(), "bob")
			assert.NoError(t, err)
			results[i] = u
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, u := range results {
		require.NotNil(t, u)
		assert.Equal(t, "https://i.example/snoo.png", u.IconURL)
	}
	fetcher.AssertNumberOfCalls(t, "UserAbout", 1)
}

func TestEnsureUser_RemembersFailures(t *testing.T) {
	repo := newMemoryRepo(Placeholder("gone"))
	fetcher := &mockProfileFetcher{}
	fetcher.On("UserAbout", mock.Anything, "gone").Return(nil, reddit.ErrNotFound).Once()

	e := NewEnricher(repo, fetcher, EnricherOptions{Logger: quietLogger(), FailureTTL: time.Hour})

	_, err := e.EnsureUser(context.Background(), "gone")
	assert.ErrorIs(t, err, reddit.ErrNotFound)

	_, err = e.EnsureUser(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrProfileUnavailable)

	fetcher.AssertNumberOfCalls(t, "UserAbout", 1)
	assert.True(t, repo.users["gone"].IsPlaceholder(), "placeholder stays in place")
}

func TestEnsureUser_RejectsDeletedAuthors(t *testing.T) {
	e := NewEnricher(newMemoryRepo(), &mockProfileFetcher{}, EnricherOptions{Logger: quietLogger()})

	_, err := e.EnsureUser(context.Background(), DeletedAuthor)
	assert.True(t, IsInvalidUsername(err))

	_, err = e.EnsureUser(context.Background(), "")
	assert.True(t, IsInvalidUsername(err))
}

func TestEnrich_SwallowsPerAuthorFailures(t *testing.T) {
	repo := newMemoryRepo(Placeholder("ok"), Placeholder("broken"))
	fetcher := &mockProfileFetcher{}
	fetcher.On("UserAbout", mock.Anything, "ok").Return(&reddit.Account{Name: "ok", IconImg: "https://i.example/ok.png"}, nil)
	fetcher.On("UserAbout", mock.Anything, "broken").Return(nil, errors.New("boom"))

	e := NewEnricher(repo, fetcher, EnricherOptions{Logger: quietLogger(), Concurrency: 2})
	e.Enrich(context.Background(), []string{"ok", "broken", "ok", DeletedAuthor, ""})

	assert.Equal(t, "https://i.example/ok.png", repo.users["ok"].IconURL)
	assert.True(t, repo.users["broken"].IsPlaceholder())
	fetcher.AssertNumberOfCalls(t, "UserAbout", 2)
}

func TestEnrichAsync(t *testing.T) {
	repo := newMemoryRepo(Placeholder("carol"))
	fetcher := &mockProfileFetcher{}
	fetcher.On("UserAbout", mock.Anything, "carol").Return(&reddit.Account{Name: "carol"}, nil)

	e := NewEnricher(repo, fetcher, EnricherOptions{Logger: quietLogger()})
	e.EnrichAsync([]string{"carol"})
	e.EnrichAsync(nil)
	e.Wait()

	assert.Equal(t, DefaultIconURL, repo.users["carol"].IconURL)
}

func TestFromRemoteAndToView(t *testing.T) {
	u := FromRemote(reddit.Account{Name: "dave"})
	assert.Equal(t, DefaultIconURL, u.IconURL)
	assert.Nil(t, u.SnoovatarURL)
	assert.False(t, u.IsPlaceholder())

	view := ToView("erin", nil)
	assert.True(t, view.Pending)
	assert.Equal(t, DefaultIconURL, view.IconURL)

	view = ToView("dave", u)
	assert.False(t, view.Pending)
	assert.Equal(t, "dave", view.Name)
}
