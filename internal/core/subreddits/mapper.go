package subreddits

import (
	"strings"

	"Readout/internal/reddit"

	"golang.org/x/net/html"
)

// FromRemote maps a remote subreddit onto a row.
// The community icon is preferred over the legacy icon image.
func FromRemote(sr reddit.Subreddit, subscribed bool) *Subreddit {
	icon := html.UnescapeString(strings.TrimSpace(sr.CommunityIcon))
	if icon == "" {
		icon = html.UnescapeString(strings.TrimSpace(sr.IconImg))
	}
	return &Subreddit{
		ID:          sr.Fullname(),
		DisplayName: sr.DisplayName,
		Title:       html.UnescapeString(sr.Title),
		IconURL:     icon,
		Subscribers: sr.Subscribers,
		NSFW:        sr.Over18,
		Subscribed:  subscribed,
	}
}
