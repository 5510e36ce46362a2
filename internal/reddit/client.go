// Package reddit provides an authenticated client for the Reddit OAuth API.
// It covers the read endpoints the local cache is synchronized from (listings,
// search, comment trees, user profiles) and the vote/save write endpoints.
package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Endpoint families tracked independently by the circuit breaker.
const (
	familyListing    = "listing"
	familySearch     = "search"
	familyComments   = "comments"
	familyUser       = "user"
	familyWrite      = "write"
	familySubreddits = "subreddits"
)

const (
	DefaultBaseURL = "https://oauth.reddit.com"
	DefaultAuthURL = "https://www.reddit.com/api/v1/access_token"

	// maxErrorBody bounds how much of an error response is kept in error messages.
	maxErrorBody = 1024
)

// ListingSorts are the sort orders accepted by the listing endpoints.
var ListingSorts = map[string]bool{
	"hot": true, "new": true, "top": true, "rising": true, "best": true, "controversial": true,
}

// SearchSorts are the sort orders accepted by the search endpoint.
var SearchSorts = map[string]bool{
	"relevance": true, "hot": true, "top": true, "new": true, "comments": true,
}

// Client provides access to the Reddit API.
type Client interface {
	// Listing fetches one page of a subreddit (or the home feed when Subreddit is empty).
	Listing(ctx context.Context, req ListingRequest) (*LinkPage, error)

	// Search fetches one page of link search results.
	Search(ctx context.Context, req SearchRequest) (*LinkPage, error)

	// CommentTree fetches a post together with its full nested comment tree.
	CommentTree(ctx context.Context, postID string) (*CommentTree, error)

	// PostByID fetches the latest state of a single post by fullname.
	PostByID(ctx context.Context, fullname string) (*Link, error)

	// UserAbout fetches a user's public profile.
	UserAbout(ctx context.Context, name string) (*Account, error)

	// Vote casts a vote on a post or comment. dir is -1, 0 or 1.
	Vote(ctx context.Context, fullname string, dir int) error

	// Save saves a post or comment for the authenticated user.
	Save(ctx context.Context, fullname string) error

	// Unsave removes a post or comment from the authenticated user's saved items.
	Unsave(ctx context.Context, fullname string) error

	// SubscribedSubreddits fetches one page of the authenticated user's subscriptions.
	SubscribedSubreddits(ctx context.Context, after string) (*SubredditPage, error)
}

// ListingRequest selects one page of a feed.
type ListingRequest struct {
	Subreddit string // empty for the home feed
	Sort      string // defaults to "hot"
	Time      string // hour, day, week, month, year, all (top/controversial only)
	After     string
	Limit     int
}

// SearchRequest selects one page of search results.
type SearchRequest struct {
	Query     string
	Sort      string // defaults to "relevance"
	Subreddit string // restricts the search when set
	After     string
	Limit     int
}

// Options configures a Client.
type Options struct {
	Tokens            TokenProvider
	HTTPClient        *http.Client
	Logger            *slog.Logger
	BaseURL           string
	UserAgent         string
	RequestsPerMinute int
	RetryMax          int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	Timeout           time.Duration
	BreakerThreshold  int
	BreakerCooldown   time.Duration
}

type client struct {
	http    *retryablehttp.Client
	tokens  TokenProvider
	limiter *rate.Limiter
	breaker *circuitBreaker
	logger  *slog.Logger
	baseURL string
}

// Ensure client implements Client interface.
var _ Client = (*client)(nil)

// NewClient creates a rate-limited, retrying Reddit API client.
func NewClient(opts Options) (Client, error) {
	if opts.Tokens == nil {
		return nil, errors.New("reddit client: token provider is required")
	}
	if opts.UserAgent == "" {
		return nil, errors.New("reddit client: user agent is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(opts.UserAgent, opts.Timeout)
	} else {
		wrapped := *httpClient
		base := wrapped.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		wrapped.Transport = &userAgentTransport{base: base, userAgent: opts.UserAgent}
		httpClient = &wrapped
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.Logger = logger
	rc.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	// Hand the final response back so status codes map onto typed errors
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(opts.RequestsPerMinute) / 60.0)
		burst = max(1, opts.RequestsPerMinute/10)
	}

	return &client{
		http:    rc,
		tokens:  opts.Tokens,
		limiter: rate.NewLimiter(limit, burst),
		breaker: newCircuitBreaker(opts.BreakerThreshold, opts.BreakerCooldown, logger),
		logger:  logger,
		baseURL: baseURL,
	}, nil
}

func (c *client) Listing(ctx context.Context, req ListingRequest) (*LinkPage, error) {
	sort := req.Sort
	if sort == "" {
		sort = "hot"
	}
	if !ListingSorts[sort] {
		return nil, fmt.Errorf("listing: %w: unknown sort %q", ErrBadRequest, sort)
	}

	path := "/" + sort
	if req.Subreddit != "" {
		path = "/r/" + url.PathEscape(req.Subreddit) + "/" + sort
	}

	q := pageQuery(req.After, req.Limit)
	if req.Time != "" {
		q.Set("t", req.Time)
	}

	var listing Listing
	if err := c.get(ctx, familyListing, "listing", path, q, &listing); err != nil {
		return nil, err
	}
	return c.linkPage("listing", &listing), nil
}

func (c *client) Search(ctx context.Context, req SearchRequest) (*LinkPage, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("search: %w: query is required", ErrBadRequest)
	}
	sort := req.Sort
	if sort == "" {
		sort = "relevance"
	}
	if !SearchSorts[sort] {
		return nil, fmt.Errorf("search: %w: unknown sort %q", ErrBadRequest, sort)
	}

	path := "/search"
	q := pageQuery(req.After, req.Limit)
	q.Set("q", req.Query)
	q.Set("sort", sort)
	q.Set("type", "link")
	if req.Subreddit != "" {
		path = "/r/" + url.PathEscape(req.Subreddit) + "/search"
		q.Set("restrict_sr", "1")
	}

	var listing Listing
	if err := c.get(ctx, familySearch, "search", path, q, &listing); err != nil {
		return nil, err
	}
	return c.linkPage("search", &listing), nil
}

func (c *client) CommentTree(ctx context.Context, postID string) (*CommentTree, error) {
	id := strings.TrimPrefix(postID, KindLink+"_")
	if id == "" {
		return nil, fmt.Errorf("comment tree: %w: post id is required", ErrBadRequest)
	}

	// The endpoint answers with two listings: the post, then its top-level comments
	var listings []Listing
	if err := c.get(ctx, familyComments, "comment tree", "/comments/"+url.PathEscape(id), nil, &listings); err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("comment tree: %w: empty response", ErrMalformedResponse)
	}

	// A post that does not decode leaves Post nil; the comments are still usable
	tree := &CommentTree{}
	links, skipped := decodeLinks(&listings[0])
	c.logSkipped("comment tree", skipped)
	if len(links) > 0 {
		tree.Post = &links[0]
	}
	if len(listings) > 1 {
		tree.Children = listings[1].Data.Children
	}
	return tree, nil
}

func (c *client) PostByID(ctx context.Context, fullname string) (*Link, error) {
	if !strings.HasPrefix(fullname, KindLink+"_") {
		return nil, fmt.Errorf("post by id: %w: %q is not a post fullname", ErrBadRequest, fullname)
	}

	var listing Listing
	if err := c.get(ctx, familyListing, "post by id", "/by_id/"+url.PathEscape(fullname), nil, &listing); err != nil {
		return nil, err
	}
	links, skipped := decodeLinks(&listing)
	if len(links) == 0 && len(skipped) > 0 {
		return nil, fmt.Errorf("post by id: %w", skipped[0])
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("post by id: %w: %s", ErrNotFound, fullname)
	}
	return &links[0], nil
}

func (c *client) UserAbout(ctx context.Context, name string) (*Account, error) {
	if name == "" {
		return nil, fmt.Errorf("user about: %w: name is required", ErrBadRequest)
	}

	var thing Thing
	if err := c.get(ctx, familyUser, "user about", "/user/"+url.PathEscape(name)+"/about", nil, &thing); err != nil {
		return nil, err
	}
	if thing.Kind != KindAccount {
		return nil, fmt.Errorf("user about: %w: unexpected kind %q", ErrMalformedResponse, thing.Kind)
	}

	var account Account
	if err := json.Unmarshal(thing.Data, &account); err != nil {
		return nil, fmt.Errorf("user about: %w: %v", ErrMalformedResponse, err)
	}
	if account.Name == "" {
		account.Name = name
	}
	return &account, nil
}

func (c *client) Vote(ctx context.Context, fullname string, dir int) error {
	if dir < -1 || dir > 1 {
		return fmt.Errorf("vote: %w: direction must be -1, 0 or 1", ErrBadRequest)
	}
	form := url.Values{}
	form.Set("id", fullname)
	form.Set("dir", strconv.Itoa(dir))
	return c.post(ctx, "vote", "/api/vote", form)
}

func (c *client) Save(ctx context.Context, fullname string) error {
	form := url.Values{}
	form.Set("id", fullname)
	return c.post(ctx, "save", "/api/save", form)
}

func (c *client) Unsave(ctx context.Context, fullname string) error {
	form := url.Values{}
	form.Set("id", fullname)
	return c.post(ctx, "unsave", "/api/unsave", form)
}

func (c *client) SubscribedSubreddits(ctx context.Context, after string) (*SubredditPage, error) {
	var listing Listing
	if err := c.get(ctx, familySubreddits, "subscribed subreddits", "/subreddits/mine/subscriber", pageQuery(after, 100), &listing); err != nil {
		return nil, err
	}

	page := &SubredditPage{After: deref(listing.Data.After)}
	for i, child := range listing.Data.Children {
		if child.Kind != KindSubreddit {
			continue
		}
		var sr Subreddit
		if err := json.Unmarshal(child.Data, &sr); err != nil {
			return nil, fmt.Errorf("subscribed subreddits: %w: subreddit %d: %v", ErrMalformedResponse, i, err)
		}
		page.Subreddits = append(page.Subreddits, sr)
	}
	return page, nil
}

func (c *client) get(ctx context.Context, family, operation, path string, query url.Values, out any) error {
	return c.do(ctx, family, operation, http.MethodGet, path, query, nil, out)
}

func (c *client) post(ctx context.Context, operation, path string, form url.Values) error {
	return c.do(ctx, familyWrite, operation, http.MethodPost, path, nil, form, nil)
}

// do performs one API call: breaker check, rate limit, token, request, status mapping, decode.
func (c *client) do(ctx context.Context, family, operation, method, path string, query, form url.Values, out any) error {
	if err := c.breaker.canAttempt(family); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", operation, err)
	}
	if err := c.tokens.EnsureValidToken(ctx); err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body any
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", operation, err)
	}
	req.Header.Set("Authorization", c.tokens.AuthorizationHeader())
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			c.breaker.recordFailure(family, err)
		}
		return fmt.Errorf("%s failed: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := statusError(operation, resp.StatusCode, strings.TrimSpace(string(raw)))
		// Only server-side trouble counts against the endpoint family
		if errors.Is(statusErr, ErrUnavailable) || errors.Is(statusErr, ErrRateLimited) {
			c.breaker.recordFailure(family, statusErr)
		}
		return statusErr
	}
	c.breaker.recordSuccess(family)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: %v", operation, ErrMalformedResponse, err)
	}
	return nil
}

func pageQuery(after string, limit int) url.Values {
	q := url.Values{}
	if after != "" {
		q.Set("after", after)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(min(limit, 100)))
	}
	return q
}

// linkPage decodes a listing of posts, dropping the children that do not decode.
func (c *client) linkPage(operation string, listing *Listing) *LinkPage {
	links, skipped := decodeLinks(listing)
	c.logSkipped(operation, skipped)
	return &LinkPage{
		Links:  links,
		After:  deref(listing.Data.After),
		Before: deref(listing.Data.Before),
	}
}

func (c *client) logSkipped(operation string, skipped []error) {
	for _, err := range skipped {
		c.logger.Warn("skipping malformed item", "operation", operation, "error", err)
	}
}
