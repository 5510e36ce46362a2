package subreddit

import (
	"context"
	"net/http"
	"strconv"

	"Readout/internal/api/handlers"
	"Readout/internal/core/subreddits"
)

// Reader is the part of the read-through repository the subreddit handlers use.
type Reader interface {
	SyncSubscriptions(ctx context.Context) (int, error)
	ListSubreddits(ctx context.Context, subscribedOnly bool) ([]*subreddits.Subreddit, error)
}

// SyncResponse reports how many subscriptions were stored
type SyncResponse struct {
	Count int `json:"count"`
}

// ListResponse is the list of cached subreddits
type ListResponse struct {
	Subreddits []*subreddits.Subreddit `json:"subreddits"`
}

// SyncHandler refreshes the cached subscription list
type SyncHandler struct {
	reader Reader
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(reader Reader) *SyncHandler {
	return &SyncHandler{reader: reader}
}

// HandleSync pages through the user's subscriptions and replaces the cached list
// POST /api/subreddits/sync
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	n, err := h.reader.SyncSubscriptions(r.Context())
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, SyncResponse{Count: n})
}

// ListHandler serves cached subreddits
type ListHandler struct {
	reader Reader
}

// NewListHandler creates a new list handler
func NewListHandler(reader Reader) *ListHandler {
	return &ListHandler{reader: reader}
}

// HandleList returns cached subreddits ordered by display name
// GET /api/subreddits?subscribed=true
func (h *ListHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	subscribed := true
	if s := r.URL.Query().Get("subscribed"); s != "" {
		var err error
		if subscribed, err = strconv.ParseBool(s); err != nil {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "subscribed must be a boolean")
			return
		}
	}

	subs, err := h.reader.ListSubreddits(r.Context(), subscribed)
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	if subs == nil {
		subs = []*subreddits.Subreddit{}
	}
	handlers.WriteJSON(w, ListResponse{Subreddits: subs})
}
