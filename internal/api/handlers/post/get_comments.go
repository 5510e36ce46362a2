package post

import (
	"net/http"
	"strconv"

	"Readout/internal/api/handlers"
	"Readout/internal/core/comments"

	"github.com/go-chi/chi/v5"
)

// ThreadResponse is the nested rendering of one comment page.
type ThreadResponse struct {
	Cursor     string                        `json:"cursor,omitempty"`
	Warning    string                        `json:"warning,omitempty"`
	Comments   []*comments.ThreadViewComment `json:"comments"`
	EndReached bool                          `json:"endReached"`
}

// GetCommentsHandler serves the comments of a post
type GetCommentsHandler struct {
	reader Reader
}

// NewGetCommentsHandler creates a new get comments handler
func NewGetCommentsHandler(reader Reader) *GetCommentsHandler {
	return &GetCommentsHandler{reader: reader}
}

// HandleGetComments returns one page of comments in pre-order.
// With nested=true the page is returned as a reply tree instead.
// GET /api/posts/{id}/comments?after=...&limit=50&refresh=false&nested=false
func (h *GetCommentsHandler) HandleGetComments(w http.ResponseWriter, r *http.Request) {
	params, err := handlers.ParsePageParams(r)
	if err != nil {
		handlers.WriteParamError(w, err)
		return
	}

	nested := false
	if s := r.URL.Query().Get("nested"); s != "" {
		if nested, err = strconv.ParseBool(s); err != nil {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "nested must be a boolean")
			return
		}
	}

	page, err := h.reader.CommentPage(r.Context(), chi.URLParam(r, "id"), params.Cursor, params.Limit, params.Refresh)
	if !nested {
		handlers.WritePage(w, page, err)
		return
	}

	if err != nil && len(page.Items) == 0 {
		handlers.WriteServiceError(w, err)
		return
	}
	resp := ThreadResponse{
		Comments:   comments.BuildThread(page.Items),
		Cursor:     page.NextCursor,
		EndReached: page.EndReached,
	}
	if err != nil {
		resp.Warning = err.Error()
	}
	handlers.WriteJSON(w, resp)
}
