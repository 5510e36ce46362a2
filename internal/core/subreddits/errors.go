package subreddits

import "errors"

var (
	// ErrSubredditNotFound is returned when a subreddit is not cached
	ErrSubredditNotFound = errors.New("subreddit not found")

	// ErrTooManyPages is returned when the subscription listing does not terminate
	ErrTooManyPages = errors.New("subscription listing exceeded page limit")
)

// IsNotFound reports whether err means the subreddit is not cached.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSubredditNotFound)
}
