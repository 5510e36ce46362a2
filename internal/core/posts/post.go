package posts

// Table is the name of the posts table; used for invalidation subscriptions.
const Table = "posts"

// Post is a cached post row.
// SortKey preserves the remote ordering: feed rows use keys below the search
// offset, rows first seen through search use the search key they arrived with.
type Post struct {
	Author        *string `json:"author,omitempty" db:"author"`
	PreviewURL    *string `json:"previewUrl,omitempty" db:"preview_url"`
	PreviewWidth  *int    `json:"previewWidth,omitempty" db:"preview_width"`
	PreviewHeight *int    `json:"previewHeight,omitempty" db:"preview_height"`
	Likes         *bool   `json:"likes" db:"likes"`
	SelfText      *string `json:"selfText,omitempty" db:"self_text"`
	ID            string  `json:"id" db:"id"`
	Title         string  `json:"title" db:"title"`
	Subreddit     string  `json:"subreddit" db:"subreddit"`
	Thumbnail     string  `json:"thumbnail" db:"thumbnail"`
	Permalink     string  `json:"permalink" db:"permalink"`
	URL           string  `json:"url" db:"url"`
	CreatedUTC    int64   `json:"createdUtc" db:"created_utc"`
	SortKey       int64   `json:"sortKey" db:"sort_key"`
	Score         int     `json:"score" db:"score"`
	NumComments   int     `json:"numComments" db:"num_comments"`
	Saved         bool    `json:"saved" db:"saved"`
}

// PagingKey returns the ordering key and id used by pagers.
func (p *Post) PagingKey() (int64, string) {
	return p.SortKey, p.ID
}

// AuthorName returns the author or "" when the author was deleted.
func (p *Post) AuthorName() string {
	if p.Author == nil {
		return ""
	}
	return *p.Author
}

// PostView is the post shape handed to API callers.
type PostView struct {
	Author        *string `json:"author,omitempty"`
	PreviewURL    *string `json:"previewUrl,omitempty"`
	PreviewWidth  *int    `json:"previewWidth,omitempty"`
	PreviewHeight *int    `json:"previewHeight,omitempty"`
	Likes         *bool   `json:"likes"`
	SelfText      *string `json:"selfText,omitempty"`
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Subreddit     string  `json:"subreddit"`
	Thumbnail     string  `json:"thumbnail,omitempty"`
	Permalink     string  `json:"permalink"`
	URL           string  `json:"url"`
	AuthorIconURL string  `json:"authorIconUrl,omitempty"`
	Excerpt       string  `json:"excerpt,omitempty"`
	CreatedUTC    int64   `json:"createdUtc"`
	SortKey       int64   `json:"sortKey"`
	Score         int     `json:"score"`
	NumComments   int     `json:"numComments"`
	Saved         bool    `json:"saved"`
}

// PagingKey returns the ordering key and id used by pagers.
func (v *PostView) PagingKey() (int64, string) {
	return v.SortKey, v.ID
}
