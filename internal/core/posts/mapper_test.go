package posts

import (
	"strings"
	"testing"

	"Readout/internal/core/users"
	"Readout/internal/reddit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestFromRemote(t *testing.T) {
	link := reddit.Link{
		Name:        "t3_abc",
		Title:       "Tom &amp; Jerry",
		Author:      "alice",
		Subreddit:   "golang",
		Thumbnail:   "https://b.thumbs.example/x.jpg",
		Permalink:   "/r/golang/comments/abc/tom_jerry/",
		URL:         "https://example.com/article",
		CreatedUTC:  1700000000.9,
		Score:       intPtr(10),
		NumComments: intPtr(3),
		Saved:       boolPtr(true),
		Likes:       boolPtr(false),
		Selftext:    strPtr("hello"),
		Preview: &reddit.Preview{Images: []reddit.PreviewImage{{
			Source: reddit.PreviewSource{URL: "https://preview.redd.it/x.jpg?width=640&amp;s=abc", Width: 640, Height: 480},
		}}},
	}

	p := FromRemote(link, 7)
	assert.Equal(t, "t3_abc", p.ID)
	assert.Equal(t, "Tom & Jerry", p.Title)
	require.NotNil(t, p.Author)
	assert.Equal(t, "alice", *p.Author)
	assert.Equal(t, int64(1700000000), p.CreatedUTC)
	assert.Equal(t, int64(7), p.SortKey)
	assert.Equal(t, 10, p.Score)
	assert.Equal(t, 3, p.NumComments)
	assert.True(t, p.Saved)
	assert.Equal(t, boolPtr(false), p.Likes)
	require.NotNil(t, p.PreviewURL)
	assert.Equal(t, "https://preview.redd.it/x.jpg?width=640&s=abc", *p.PreviewURL)
	assert.Equal(t, 640, *p.PreviewWidth)
	assert.Equal(t, 480, *p.PreviewHeight)
	assert.Equal(t, "hello", *p.SelfText)
}

func TestFromRemote_MissingFields(t *testing.T) {
	p := FromRemote(reddit.Link{ID: "xyz", Author: "[deleted]", Selftext: strPtr("")}, 0)

	assert.Equal(t, "t3_xyz", p.ID)
	assert.Nil(t, p.Author)
	assert.Nil(t, p.Likes)
	assert.Nil(t, p.SelfText)
	assert.Nil(t, p.PreviewURL)
	assert.Zero(t, p.Score)
	assert.False(t, p.Saved)
}

func TestFromRemote_PreviewFallsBackToURL(t *testing.T) {
	p := FromRemote(reddit.Link{Name: "t3_a", URL: "https://i.example/a.png?a=1&amp;b=2"}, 0)
	require.NotNil(t, p.PreviewURL)
	assert.Equal(t, "https://i.example/a.png?a=1&b=2", *p.PreviewURL)
	assert.Nil(t, p.PreviewWidth)
	assert.Nil(t, p.PreviewHeight)
}

func TestOverlay(t *testing.T) {
	cached := &Post{
		ID:          "t3_a",
		Title:       "Old title",
		Author:      strPtr("alice"),
		Subreddit:   "golang",
		URL:         "https://example.com",
		Score:       10,
		NumComments: 1,
		SortKey:     42,
		Saved:       true,
		Likes:       boolPtr(true),
		SelfText:    strPtr("body"),
	}

	fresh := reddit.Link{
		Name:        "t3_a",
		Title:       "New title",
		Score:       intPtr(25),
		NumComments: intPtr(4),
	}

	out := Overlay(cached, fresh)
	assert.Equal(t, "New title", out.Title)
	assert.Equal(t, 25, out.Score)
	assert.Equal(t, 4, out.NumComments)
	assert.Equal(t, int64(42), out.SortKey, "local sort key is kept")
	assert.Equal(t, "alice", *out.Author, "omitted author falls back to cached")
	assert.Equal(t, "golang", out.Subreddit)
	assert.True(t, out.Saved, "omitted saved falls back to cached")
	assert.Equal(t, boolPtr(true), out.Likes)
	assert.Equal(t, "body", *out.SelfText)

	assert.Equal(t, "Old title", cached.Title, "cached row is not mutated")
}

func TestToView(t *testing.T) {
	long := strings.Repeat("é", 300)
	p := &Post{ID: "t3_a", Author: strPtr("alice"), SelfText: &long, SortKey: 3}

	v := ToView(p, nil)
	assert.Equal(t, users.DefaultIconURL, v.AuthorIconURL)
	assert.Equal(t, int64(3), v.SortKey)

	v = ToView(p, &users.User{Name: "alice", IconURL: "https://i.example/alice.png"})
	assert.Equal(t, "https://i.example/alice.png", v.AuthorIconURL)
	assert.Equal(t, ExcerptLength+1, len([]rune(v.Excerpt)))

	deleted := ToView(&Post{ID: "t3_b"}, nil)
	assert.Empty(t, deleted.AuthorIconURL)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", 10))
	assert.Equal(t, "abc…", Excerpt("abc def", 4))
	assert.Equal(t, "", Excerpt("anything", 0))

	// Family emoji is one grapheme cluster made of several runes
	family := "👨‍👩‍👧"
	assert.Equal(t, family+"…", Excerpt(family+family, 1))
}
