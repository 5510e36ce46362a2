package comments

import "context"

// Repository defines read access to cached comments.
// Bulk writes happen inside the comment mediator's transaction.
type Repository interface {
	// GetComment returns the cached comment, or ErrCommentNotFound.
	GetComment(ctx context.Context, id string) (*Comment, error)

	// ListComments returns the comments of a post with sort key greater than
	// after, in pre-order.
	ListComments(ctx context.Context, postID string, after int64, limit int) ([]*Comment, error)

	// ListReplies returns the direct replies of a comment, in pre-order.
	ListReplies(ctx context.Context, parentID string) ([]*Comment, error)
}
