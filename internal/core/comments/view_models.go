package comments

import "Readout/internal/core/users"

// CommentView is the comment shape handed to API callers.
type CommentView struct {
	ParentID   *string         `json:"parentId,omitempty"`
	Author     *users.UserView `json:"author,omitempty"`
	Likes      *bool           `json:"likes"`
	ID         string          `json:"id"`
	PostID     string          `json:"postId"`
	Body       string          `json:"body"`
	BodyHTML   string          `json:"bodyHtml"`
	CreatedUTC int64           `json:"createdUtc"`
	SortKey    int64           `json:"sortKey"`
	Score      int             `json:"score"`
	Depth      int             `json:"depth"`
	ReplyCount int             `json:"replyCount"`
	Saved      bool            `json:"saved"`
}

// PagingKey returns the ordering key and id used by pagers.
func (v *CommentView) PagingKey() (int64, string) {
	return v.SortKey, v.ID
}

// ThreadViewComment is a comment with its nested replies, rebuilt at read time.
type ThreadViewComment struct {
	Comment *CommentView         `json:"comment"`
	Replies []*ThreadViewComment `json:"replies,omitempty"`
	HasMore bool                 `json:"hasMore,omitempty"` // ReplyCount exceeds the replies present
}

// BuildThread nests a flat, pre-ordered slice of comments by parent id.
// Comments whose parent is not in the slice become top-level entries, so a
// page cut from the middle of a thread still renders.
func BuildThread(flat []*CommentView) []*ThreadViewComment {
	nodes := make(map[string]*ThreadViewComment, len(flat))
	roots := make([]*ThreadViewComment, 0)

	for _, c := range flat {
		node := &ThreadViewComment{Comment: c}
		nodes[c.ID] = node

		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	for _, node := range nodes {
		node.HasMore = node.Comment.ReplyCount > len(node.Replies)
	}
	return roots
}
