package comments

// Table is the name of the comments table; used for invalidation subscriptions.
const Table = "comments"

// Comment is a cached comment row. The tree is stored flat: each row knows its
// parent and depth, and SortKey orders the rows of one post in pre-order.
type Comment struct {
	ParentID   *string `json:"parentId,omitempty" db:"parent_id"`
	Author     *string `json:"author,omitempty" db:"author"`
	Likes      *bool   `json:"likes" db:"likes"`
	ID         string  `json:"id" db:"id"`
	PostID     string  `json:"postId" db:"post_id"`
	Body       string  `json:"body" db:"body"`
	BodyHTML   string  `json:"bodyHtml" db:"body_html"`
	CreatedUTC int64   `json:"createdUtc" db:"created_utc"`
	SortKey    int64   `json:"sortKey" db:"sort_key"`
	Score      int     `json:"score" db:"score"`
	Depth      int     `json:"depth" db:"depth"`
	ReplyCount int     `json:"replyCount" db:"reply_count"` // direct replies at ingest time
	Saved      bool    `json:"saved" db:"saved"`
}

// PagingKey returns the ordering key and id used by pagers.
func (c *Comment) PagingKey() (int64, string) {
	return c.SortKey, c.ID
}

// IsRoot reports whether the comment replies directly to the post.
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}
