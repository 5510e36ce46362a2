package post

import (
	"context"
	"net/http"

	"Readout/internal/api/handlers"
	"Readout/internal/core/comments"
	"Readout/internal/core/paging"
	"Readout/internal/core/posts"

	"github.com/go-chi/chi/v5"
)

// Reader is the part of the read-through repository the post handlers use.
type Reader interface {
	GetPost(ctx context.Context, id string) (*posts.PostView, error)
	RefreshPost(ctx context.Context, id string) (*posts.PostView, error)
	ObservePost(ctx context.Context, id string) (<-chan *posts.PostView, error)
	CommentPage(ctx context.Context, postID string, cursor paging.Cursor, limit int, refresh bool) (paging.Page[*comments.CommentView], error)
}

// GetPostHandler serves a cached post
type GetPostHandler struct {
	reader Reader
}

// NewGetPostHandler creates a new get post handler
func NewGetPostHandler(reader Reader) *GetPostHandler {
	return &GetPostHandler{reader: reader}
}

// HandleGetPost returns the cached post
// GET /api/posts/{id}
func (h *GetPostHandler) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	view, err := h.reader.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, view)
}

// RefreshPostHandler re-fetches a post from Reddit
type RefreshPostHandler struct {
	reader Reader
}

// NewRefreshPostHandler creates a new refresh post handler
func NewRefreshPostHandler(reader Reader) *RefreshPostHandler {
	return &RefreshPostHandler{reader: reader}
}

// HandleRefreshPost overlays the latest remote state onto the cached post.
// The cached post is left untouched when the fetch fails.
// POST /api/posts/{id}/refresh
func (h *RefreshPostHandler) HandleRefreshPost(w http.ResponseWriter, r *http.Request) {
	view, err := h.reader.RefreshPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, view)
}
