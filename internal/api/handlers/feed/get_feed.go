package feed

import (
	"context"
	"net/http"
	"strings"

	"Readout/internal/api/handlers"
	"Readout/internal/core/mediators"
	"Readout/internal/core/paging"
	"Readout/internal/core/posts"
)

// Reader is the part of the read-through repository the feed handlers use.
type Reader interface {
	FeedPage(ctx context.Context, scope mediators.FeedScope, cursor paging.Cursor, limit int, refresh bool) (paging.Page[*posts.PostView], error)
	SearchPage(ctx context.Context, scope mediators.SearchScope, cursor paging.Cursor, limit int, refresh bool) (paging.Page[*posts.PostView], error)
}

var validSorts = map[string]bool{
	"": true, "hot": true, "new": true, "top": true, "rising": true, "controversial": true, "best": true,
}

var validTimes = map[string]bool{
	"": true, "hour": true, "day": true, "week": true, "month": true, "year": true, "all": true,
}

// GetFeedHandler serves the home or subreddit feed
type GetFeedHandler struct {
	reader Reader
}

// NewGetFeedHandler creates a new feed handler
func NewGetFeedHandler(reader Reader) *GetFeedHandler {
	return &GetFeedHandler{reader: reader}
}

// HandleGetFeed returns one page of the feed
// GET /api/feed?subreddit=golang&sort=hot&t=day&after=...&limit=25&refresh=false
func (h *GetFeedHandler) HandleGetFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope := mediators.FeedScope{
		Subreddit: strings.TrimSpace(q.Get("subreddit")),
		Sort:      strings.ToLower(q.Get("sort")),
		Time:      strings.ToLower(q.Get("t")),
	}
	if !validSorts[scope.Sort] {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "sort must be one of hot, new, top, rising, controversial, best")
		return
	}
	if !validTimes[scope.Time] {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "t must be one of hour, day, week, month, year, all")
		return
	}

	params, err := handlers.ParsePageParams(r)
	if err != nil {
		handlers.WriteParamError(w, err)
		return
	}

	page, err := h.reader.FeedPage(r.Context(), scope, params.Cursor, params.Limit, params.Refresh)
	handlers.WritePage(w, page, err)
}
