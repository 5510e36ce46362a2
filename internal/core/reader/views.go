package reader

import (
	"context"
	"fmt"

	"Readout/internal/core/comments"
	"Readout/internal/core/posts"
	"Readout/internal/core/users"
)

// authors loads the cached rows of names and schedules enrichment for the
// ones still missing a profile.
func (s *service) authors(ctx context.Context, names []string) (map[string]*users.User, error) {
	if len(names) == 0 {
		return map[string]*users.User{}, nil
	}

	cached, err := s.users.GetUsers(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("failed to load authors: %w", err)
	}

	var pending []string
	for _, name := range names {
		if u, ok := cached[name]; !ok || u.IsPlaceholder() {
			pending = append(pending, name)
		}
	}
	if len(pending) > 0 {
		s.enricher.EnrichAsync(pending)
	}
	return cached, nil
}

func (s *service) postViews(ctx context.Context, rows []*posts.Post) ([]*posts.PostView, error) {
	seen := make(map[string]struct{})
	var names []string
	for _, p := range rows {
		if name := p.AuthorName(); name != "" {
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}

	authors, err := s.authors(ctx, names)
	if err != nil {
		return nil, err
	}

	views := make([]*posts.PostView, 0, len(rows))
	for _, p := range rows {
		views = append(views, posts.ToView(p, authors[p.AuthorName()]))
	}
	return views, nil
}

func (s *service) commentViews(ctx context.Context, rows []*comments.Comment) ([]*comments.CommentView, error) {
	authors, err := s.authors(ctx, comments.Authors(rows))
	if err != nil {
		return nil, err
	}

	views := make([]*comments.CommentView, 0, len(rows))
	for _, c := range rows {
		var author *users.User
		if c.Author != nil {
			author = authors[*c.Author]
		}
		views = append(views, comments.ToView(c, author))
	}
	return views, nil
}
