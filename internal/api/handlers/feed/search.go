package feed

import (
	"net/http"
	"strings"

	"Readout/internal/api/handlers"
	"Readout/internal/core/mediators"
)

var validSearchSorts = map[string]bool{
	"": true, "relevance": true, "hot": true, "top": true, "new": true, "comments": true,
}

// SearchHandler serves post search results
type SearchHandler struct {
	reader Reader
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(reader Reader) *SearchHandler {
	return &SearchHandler{reader: reader}
}

// HandleSearch returns one page of results for a query
// GET /api/search?q=gophers&sort=relevance&subreddit=&after=...&limit=25&refresh=false
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope := mediators.SearchScope{
		Query:     strings.TrimSpace(q.Get("q")),
		Sort:      strings.ToLower(q.Get("sort")),
		Subreddit: strings.TrimSpace(q.Get("subreddit")),
	}
	if scope.Query == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "q is required")
		return
	}
	if len(scope.Query) > 512 {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "q must be at most 512 characters")
		return
	}
	if !validSearchSorts[scope.Sort] {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "sort must be one of relevance, hot, top, new, comments")
		return
	}

	params, err := handlers.ParsePageParams(r)
	if err != nil {
		handlers.WriteParamError(w, err)
		return
	}

	page, err := h.reader.SearchPage(r.Context(), scope, params.Cursor, params.Limit, params.Refresh)
	handlers.WritePage(w, page, err)
}
