// Package mediators keeps the local store in sync with the remote API, one
// paginated scope at a time: the feed, a search query or a post's comments.
package mediators

import "strings"

// SearchSortKeyOffset separates search-scoped sort keys from feed sort keys.
// Feed keys stay below it; search mappings start at it.
const SearchSortKeyOffset int64 = 1_000_000_000

// Tables touched by mediators besides the entity tables.
const (
	RemoteKeysTable       = "remote_keys"
	SearchResultsTable    = "search_results"
	SearchRemoteKeysTable = "search_remote_keys"
	ScopesTable           = "paging_scopes"
)

// RemoteKey stores the remote cursors of the feed page a post arrived on.
// An empty NextKey means the remote listing ended at that page.
type RemoteKey struct {
	PostID  string `json:"postId" db:"post_id"`
	PrevKey string `json:"prevKey" db:"prev_key"`
	NextKey string `json:"nextKey" db:"next_key"`
}

// SearchRemoteKey is RemoteKey scoped to one search query.
type SearchRemoteKey struct {
	Query   string `json:"query" db:"query"`
	PostID  string `json:"postId" db:"post_id"`
	PrevKey string `json:"prevKey" db:"prev_key"`
	NextKey string `json:"nextKey" db:"next_key"`
}

// SearchResult maps a post into a query's ordering without touching the
// post's own sort key.
type SearchResult struct {
	Query   string `json:"query" db:"query"`
	PostID  string `json:"postId" db:"post_id"`
	SortKey int64  `json:"sortKey" db:"sort_key"`
}

// FeedScope selects the listing a FeedMediator follows.
type FeedScope struct {
	Subreddit string // empty for the home feed
	Sort      string
	Time      string
}

// key identifies the listing in paging_scopes.
func (s FeedScope) key() string {
	return strings.ToLower(s.Subreddit) + "|" + s.Sort + "|" + s.Time
}

// SearchScope selects the search a SearchMediator follows.
type SearchScope struct {
	Query     string
	Sort      string
	Subreddit string // restricts the search when set
}

// key identifies the search options of one query in paging_scopes.
func (s SearchScope) key() string {
	return s.Sort + "|" + strings.ToLower(s.Subreddit)
}

const feedScopeName = "feed"

func searchScopeName(query string) string {
	return "search:" + query
}
