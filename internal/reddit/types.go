package reddit

import (
	"encoding/json"
	"fmt"
)

// Kind discriminators used by the Reddit API ("thing" kinds).
const (
	KindComment   = "t1"
	KindAccount   = "t2"
	KindLink      = "t3"
	KindSubreddit = "t5"
	KindListing   = "Listing"
	KindMore      = "more"
)

// Thing is the generic envelope every Reddit object is wrapped in.
// Data is kept raw so that the kind can be inspected before decoding.
type Thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Listing is a page of things with its pagination cursors.
type Listing struct {
	Kind string      `json:"kind"`
	Data ListingData `json:"data"`
}

// ListingData holds the children of a listing and the after/before cursors.
// Cursors are null on the first/last page.
type ListingData struct {
	After    *string `json:"after"`
	Before   *string `json:"before"`
	Children []Thing `json:"children"`
}

// Link is a post ("t3") as returned by listing, search and by_id endpoints.
// Numeric fields are pointers so that a refresh can tell an omitted field from a zero value.
type Link struct {
	Selftext    *string  `json:"selftext"`
	Preview     *Preview `json:"preview,omitempty"`
	Saved       *bool    `json:"saved"`
	Likes       *bool    `json:"likes"`
	Score       *int     `json:"score"`
	NumComments *int     `json:"num_comments"`
	Name        string   `json:"name"`
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Subreddit   string   `json:"subreddit"`
	Thumbnail   string   `json:"thumbnail"`
	Permalink   string   `json:"permalink"`
	URL         string   `json:"url"`
	CreatedUTC  float64  `json:"created_utc"`
}

// Fullname returns the "t3_" prefixed identifier of the link.
func (l *Link) Fullname() string {
	return fullname(KindLink, l.Name, l.ID)
}

// Preview holds the resolved preview images of a link.
type Preview struct {
	Images []PreviewImage `json:"images"`
}

// PreviewImage is a single preview image with its source rendition.
type PreviewImage struct {
	Source PreviewSource `json:"source"`
}

// PreviewSource is the full-size rendition of a preview image.
// URL is HTML-escaped by the API unless raw_json=1 is requested.
type PreviewSource struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Comment is a comment ("t1"). Replies carries the embedded reply listing,
// which the API sends as an empty string when there are no replies.
type Comment struct {
	Saved      *bool           `json:"saved"`
	Likes      *bool           `json:"likes"`
	Name       string          `json:"name"`
	ID         string          `json:"id"`
	Author     string          `json:"author"`
	Body       string          `json:"body"`
	BodyHTML   string          `json:"body_html"`
	ParentID   string          `json:"parent_id"`
	LinkID     string          `json:"link_id"`
	Replies    json.RawMessage `json:"replies"`
	Score      int             `json:"score"`
	CreatedUTC float64         `json:"created_utc"`
}

// Fullname returns the "t1_" prefixed identifier of the comment, or "" if it has no id.
func (c *Comment) Fullname() string {
	return fullname(KindComment, c.Name, c.ID)
}

// Account is the "about" payload of a user ("t2").
type Account struct {
	Name         string `json:"name"`
	IconImg      string `json:"icon_img"`
	SnoovatarImg string `json:"snoovatar_img"`
}

// Subreddit is a subreddit ("t5").
type Subreddit struct {
	UserIsSubscriber *bool  `json:"user_is_subscriber"`
	Name             string `json:"name"`
	ID               string `json:"id"`
	DisplayName      string `json:"display_name"`
	Title            string `json:"title"`
	IconImg          string `json:"icon_img"`
	CommunityIcon    string `json:"community_icon"`
	Subscribers      int    `json:"subscribers"`
	Over18           bool   `json:"over18"`
}

// Fullname returns the "t5_" prefixed identifier of the subreddit.
func (s *Subreddit) Fullname() string {
	return fullname(KindSubreddit, s.Name, s.ID)
}

// LinkPage is one decoded page of links.
type LinkPage struct {
	Links  []Link
	After  string
	Before string
}

// SubredditPage is one decoded page of subreddits.
type SubredditPage struct {
	Subreddits []Subreddit
	After      string
}

// CommentTree is the response of the comments endpoint: the post itself
// plus the top-level comment things, each carrying its replies inline.
type CommentTree struct {
	Post     *Link
	Children []Thing
}

func fullname(kind, name, id string) string {
	if name != "" {
		return name
	}
	if id == "" {
		return ""
	}
	return kind + "_" + id
}

// decodeLinks decodes the "t3" children of a listing. A child that does not
// decode is skipped; its error is returned in skipped.
func decodeLinks(listing *Listing) (links []Link, skipped []error) {
	links = make([]Link, 0, len(listing.Data.Children))
	for i, child := range listing.Data.Children {
		if child.Kind != KindLink {
			continue
		}
		var link Link
		if err := json.Unmarshal(child.Data, &link); err != nil {
			skipped = append(skipped, fmt.Errorf("%w: link %d: %v", ErrMalformedResponse, i, err))
			continue
		}
		links = append(links, link)
	}
	return links, skipped
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
