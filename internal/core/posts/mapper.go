package posts

import (
	"strings"
	"unicode"

	"Readout/internal/core/users"
	"Readout/internal/reddit"

	"github.com/rivo/uniseg"
	"golang.org/x/net/html"
)

// ExcerptLength is the number of grapheme clusters kept in PostView.Excerpt.
const ExcerptLength = 280

// FromRemote maps a remote link onto a post row with the given sort key.
// Missing optional fields become nil or zero values.
func FromRemote(link reddit.Link, sortKey int64) *Post {
	p := &Post{
		ID:         link.Fullname(),
		Author:     authorOf(link.Author),
		Title:      html.UnescapeString(link.Title),
		Subreddit:  link.Subreddit,
		Thumbnail:  unescapeURL(link.Thumbnail),
		Permalink:  link.Permalink,
		URL:        unescapeURL(link.URL),
		CreatedUTC: int64(link.CreatedUTC),
		SortKey:    sortKey,
		Likes:      copyBool(link.Likes),
		SelfText:   nonEmpty(link.Selftext),
	}
	if link.Score != nil {
		p.Score = *link.Score
	}
	if link.NumComments != nil {
		p.NumComments = *link.NumComments
	}
	if link.Saved != nil {
		p.Saved = *link.Saved
	}
	p.PreviewURL, p.PreviewWidth, p.PreviewHeight = extractPreview(link)
	return p
}

// Overlay applies a freshly fetched link onto a cached row. Fresh values win
// when present; omitted fields keep the cached value. The local sort key is always kept.
func Overlay(cached *Post, fresh reddit.Link) *Post {
	out := *cached

	if fresh.Title != "" {
		out.Title = html.UnescapeString(fresh.Title)
	}
	if fresh.Author != "" {
		out.Author = authorOf(fresh.Author)
	}
	if fresh.Subreddit != "" {
		out.Subreddit = fresh.Subreddit
	}
	if fresh.Thumbnail != "" {
		out.Thumbnail = unescapeURL(fresh.Thumbnail)
	}
	if fresh.Permalink != "" {
		out.Permalink = fresh.Permalink
	}
	if fresh.URL != "" {
		out.URL = unescapeURL(fresh.URL)
	}
	if fresh.CreatedUTC > 0 {
		out.CreatedUTC = int64(fresh.CreatedUTC)
	}
	if fresh.Score != nil {
		out.Score = *fresh.Score
	}
	if fresh.NumComments != nil {
		out.NumComments = *fresh.NumComments
	}
	if fresh.Saved != nil {
		out.Saved = *fresh.Saved
	}
	if fresh.Likes != nil {
		out.Likes = copyBool(fresh.Likes)
	}
	if fresh.Selftext != nil {
		out.SelfText = nonEmpty(fresh.Selftext)
	}
	if fresh.Preview != nil || fresh.URL != "" {
		if u, w, h := extractPreview(fresh); u != nil {
			out.PreviewURL, out.PreviewWidth, out.PreviewHeight = u, w, h
		}
	}
	return &out
}

// ToView converts a cached row into the API shape.
// author may be nil when the author row has not been cached.
func ToView(p *Post, author *users.User) *PostView {
	v := &PostView{
		Author:        p.Author,
		PreviewURL:    p.PreviewURL,
		PreviewWidth:  p.PreviewWidth,
		PreviewHeight: p.PreviewHeight,
		Likes:         p.Likes,
		SelfText:      p.SelfText,
		ID:            p.ID,
		Title:         p.Title,
		Subreddit:     p.Subreddit,
		Thumbnail:     p.Thumbnail,
		Permalink:     p.Permalink,
		URL:           p.URL,
		CreatedUTC:    p.CreatedUTC,
		SortKey:       p.SortKey,
		Score:         p.Score,
		NumComments:   p.NumComments,
		Saved:         p.Saved,
	}
	if p.Author != nil {
		v.AuthorIconURL = users.ToView(*p.Author, author).IconURL
	}
	if p.SelfText != nil {
		v.Excerpt = Excerpt(*p.SelfText, ExcerptLength)
	}
	return v
}

// Excerpt shortens s to at most limit grapheme clusters, appending an
// ellipsis when anything was cut. Combined emoji and accents are never split.
func Excerpt(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if uniseg.GraphemeClusterCount(s) <= limit {
		return s
	}

	var b strings.Builder
	g := uniseg.NewGraphemes(s)
	for n := 0; n < limit && g.Next(); n++ {
		b.WriteString(g.Str())
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace) + "…"
}

// extractPreview takes the first preview image, unescaping its URL, and
// falls back to the post URL when the link carries no preview.
func extractPreview(link reddit.Link) (*string, *int, *int) {
	if link.Preview != nil && len(link.Preview.Images) > 0 {
		src := link.Preview.Images[0].Source
		if src.URL != "" {
			u := unescapeURL(src.URL)
			w, h := src.Width, src.Height
			return &u, &w, &h
		}
	}
	if link.URL != "" {
		u := unescapeURL(link.URL)
		return &u, nil, nil
	}
	return nil, nil, nil
}

func authorOf(name string) *string {
	if name == "" || name == users.DeletedAuthor {
		return nil
	}
	return &name
}

func unescapeURL(raw string) string {
	return html.UnescapeString(strings.TrimSpace(raw))
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}

func copyBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
