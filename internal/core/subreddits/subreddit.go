package subreddits

// Table is the name of the subreddits table; used for invalidation subscriptions.
const Table = "subreddits"

// Subreddit is a cached subreddit row.
// Subscribed is maintained by a replace-all sweep, not by diffing.
type Subreddit struct {
	ID          string `json:"id" db:"id"`
	DisplayName string `json:"displayName" db:"display_name"`
	Title       string `json:"title" db:"title"`
	IconURL     string `json:"iconUrl,omitempty" db:"icon_url"`
	Subscribers int    `json:"subscribers" db:"subscribers"`
	NSFW        bool   `json:"nsfw" db:"nsfw"`
	Subscribed  bool   `json:"subscribed" db:"subscribed"`
}
