package mediators

import (
	"context"
	"fmt"
	"log/slog"

	"Readout/internal/core/comments"
	"Readout/internal/core/paging"
	"Readout/internal/core/posts"
	"Readout/internal/reddit"
)

// CommentMediator loads the full comment tree of one post. The endpoint has
// no pagination, so only a refresh reaches the network.
type CommentMediator struct {
	base
	postID string
}

// Ensure CommentMediator implements paging.RemoteMediator.
var _ paging.RemoteMediator = (*CommentMediator)(nil)

// NewCommentMediator creates a mediator for the comments of postID.
func NewCommentMediator(remote Remote, store Store, enricher AuthorEnricher, postID string, logger *slog.Logger) (*CommentMediator, error) {
	if err := posts.ValidateID(postID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScope, err)
	}
	return &CommentMediator{
		base:   newBase(remote, store, enricher, logger),
		postID: postID,
	}, nil
}

// PostID returns the post whose comments the mediator loads.
func (m *CommentMediator) PostID() string {
	return m.postID
}

// Load fetches and flattens the comment tree on refresh. Every load reports
// the end of pagination.
func (m *CommentMediator) Load(ctx context.Context, loadType paging.LoadType, _ paging.PagingState) (res paging.MediatorResult) {
	defer m.recoverLoad(&res, "comments")

	if loadType != paging.Refresh {
		return paging.Success(true)
	}

	tree, err := m.remote.CommentTree(ctx, m.postID)
	if err != nil {
		return paging.Failure(fmt.Errorf("failed to fetch comment tree: %w", err))
	}

	var pending []string
	var stored int
	err = m.store.InTx(ctx, func(tx Tx) error {
		authors, err := m.refreshPost(ctx, tx, tree.Post)
		if err != nil {
			return err
		}

		first, err := tx.NextCommentSortKey(ctx, m.postID)
		if err != nil {
			return err
		}
		rows := comments.Flatten(tree.Children, m.postID, first)
		if err := tx.UpsertComments(ctx, rows); err != nil {
			return err
		}
		stored = len(rows)

		pending, err = tx.InsertPlaceholderUsers(ctx, append(authors, comments.Authors(rows)...))
		return err
	})
	if err != nil {
		return paging.Failure(fmt.Errorf("failed to store comments: %w", err))
	}

	m.logger.Debug("comment tree stored", "post_id", m.postID, "comments", stored)

	m.enrich(pending)
	return paging.Success(true)
}

// refreshPost overlays the post that heads the comment tree onto its cached
// row. The local sort key and vote/save state are kept. Posts that are not
// cached are left alone.
func (m *CommentMediator) refreshPost(ctx context.Context, tx Tx, fresh *reddit.Link) ([]string, error) {
	if fresh == nil || fresh.Fullname() != m.postID {
		return nil, nil
	}

	cached, err := tx.GetPost(ctx, m.postID)
	if posts.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	updated := posts.Overlay(cached, *fresh)
	updated.Likes = cached.Likes
	updated.Saved = cached.Saved
	if err := tx.UpdatePost(ctx, updated); err != nil {
		return nil, err
	}
	return postAuthors([]*posts.Post{updated}), nil
}
