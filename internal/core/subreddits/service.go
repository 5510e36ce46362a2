package subreddits

import (
	"context"
	"fmt"
	"log/slog"
)

// maxSubscriptionPages bounds the sweep; 100 subreddits per page.
const maxSubscriptionPages = 50

type subredditService struct {
	repo    Repository
	fetcher SubscriptionFetcher
	logger  *slog.Logger
}

// NewService creates a subreddit service.
func NewService(repo Repository, fetcher SubscriptionFetcher, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &subredditService{repo: repo, fetcher: fetcher, logger: logger}
}

func (s *subredditService) SyncSubscriptions(ctx context.Context) (int, error) {
	var subs []*Subreddit
	seen := make(map[string]struct{})

	after := ""
	for page := 0; ; page++ {
		if page >= maxSubscriptionPages {
			return 0, ErrTooManyPages
		}

		resp, err := s.fetcher.SubscribedSubreddits(ctx, after)
		if err != nil {
			return 0, fmt.Errorf("failed to fetch subscriptions: %w", err)
		}
		for _, sr := range resp.Subreddits {
			row := FromRemote(sr, true)
			if row.ID == "" {
				continue
			}
			if _, dup := seen[row.ID]; dup {
				continue
			}
			seen[row.ID] = struct{}{}
			subs = append(subs, row)
		}

		if resp.After == "" || resp.After == after {
			break
		}
		after = resp.After
	}

	// Nothing is replaced unless every page was fetched
	if err := s.repo.ReplaceSubscribed(ctx, subs); err != nil {
		return 0, fmt.Errorf("failed to store subscriptions: %w", err)
	}

	s.logger.Info("subscriptions synced", "count", len(subs))
	return len(subs), nil
}

func (s *subredditService) ListSubreddits(ctx context.Context, subscribedOnly bool) ([]*Subreddit, error) {
	return s.repo.ListSubreddits(ctx, subscribedOnly)
}
