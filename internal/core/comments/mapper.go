package comments

import (
	"Readout/internal/core/users"
	"Readout/internal/reddit"

	"golang.org/x/net/html"
)

// FromRemote maps a remote comment onto a row. Placement in the tree
// (parent, depth, reply count, sort key) is decided by the flattener.
func FromRemote(c reddit.Comment, postID string, parentID *string, depth, replyCount int, sortKey int64) *Comment {
	row := &Comment{
		ID:         c.Fullname(),
		PostID:     postID,
		ParentID:   parentID,
		Body:       html.UnescapeString(c.Body),
		BodyHTML:   html.UnescapeString(c.BodyHTML),
		Score:      c.Score,
		Depth:      depth,
		ReplyCount: replyCount,
		SortKey:    sortKey,
		CreatedUTC: int64(c.CreatedUTC),
	}
	if c.Author != "" && c.Author != users.DeletedAuthor {
		author := c.Author
		row.Author = &author
	}
	if c.Saved != nil {
		row.Saved = *c.Saved
	}
	if c.Likes != nil {
		likes := *c.Likes
		row.Likes = &likes
	}
	return row
}

// ToView converts a cached row into the API shape.
func ToView(c *Comment, author *users.User) *CommentView {
	v := &CommentView{
		ParentID:   c.ParentID,
		Likes:      c.Likes,
		ID:         c.ID,
		PostID:     c.PostID,
		Body:       c.Body,
		BodyHTML:   c.BodyHTML,
		CreatedUTC: c.CreatedUTC,
		SortKey:    c.SortKey,
		Score:      c.Score,
		Depth:      c.Depth,
		ReplyCount: c.ReplyCount,
		Saved:      c.Saved,
	}
	if c.Author != nil {
		v.Author = users.ToView(*c.Author, author)
	}
	return v
}

// Authors returns the distinct non-deleted authors of rows, in first-seen order.
func Authors(rows []*Comment) []string {
	seen := make(map[string]struct{}, len(rows))
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Author == nil {
			continue
		}
		if _, ok := seen[*r.Author]; ok {
			continue
		}
		seen[*r.Author] = struct{}{}
		out = append(out, *r.Author)
	}
	return out
}
