package vote

import (
	"context"
	"encoding/json"
	"net/http"

	"Readout/internal/api/handlers"
	"Readout/internal/core/votes"

	"github.com/go-chi/chi/v5"
)

// VoteFunc casts a vote on the subject with the given id.
type VoteFunc func(ctx context.Context, id string, dir votes.Direction) (*votes.State, error)

// SaveFunc saves or unsaves the subject with the given id.
type SaveFunc func(ctx context.Context, id string, saved bool) (*votes.State, error)

// VoteInput is the body of a vote request. Dir accepts 1, 0, -1 or "up",
// "none", "down".
type VoteInput struct {
	Dir json.RawMessage `json:"dir"`
}

// SaveInput is the body of a save request
type SaveInput struct {
	Saved *bool `json:"saved"`
}

// VoteHandler handles votes on posts or comments
type VoteHandler struct {
	vote VoteFunc
}

// NewVoteHandler creates a vote handler around vote, which decides whether
// posts or comments are targeted.
func NewVoteHandler(vote VoteFunc) *VoteHandler {
	return &VoteHandler{vote: vote}
}

// HandleVote applies the vote locally and forwards it to Reddit.
// The response carries the updated local state even when forwarding failed.
// POST /api/posts/{id}/vote, POST /api/comments/{id}/vote
//
// Request body: { "dir": 1 | 0 | -1 }
func (h *VoteHandler) HandleVote(w http.ResponseWriter, r *http.Request) {
	var req VoteInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}
	if len(req.Dir) == 0 || string(req.Dir) == "null" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "dir is required")
		return
	}

	dir, err := parseDir(req.Dir)
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	state, err := h.vote(r.Context(), chi.URLParam(r, "id"), dir)
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, state)
}

// parseDir accepts the numeric or the string form of a direction.
func parseDir(raw json.RawMessage) (votes.Direction, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	return votes.ParseDirection(s)
}

// SaveHandler handles saving posts or comments
type SaveHandler struct {
	save SaveFunc
}

// NewSaveHandler creates a save handler around save
func NewSaveHandler(save SaveFunc) *SaveHandler {
	return &SaveHandler{save: save}
}

// HandleSave sets the saved flag locally and forwards it to Reddit
// POST /api/posts/{id}/save, POST /api/comments/{id}/save
//
// Request body: { "saved": true | false }
func (h *SaveHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req SaveInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}
	if req.Saved == nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "saved is required")
		return
	}

	state, err := h.save(r.Context(), chi.URLParam(r, "id"), *req.Saved)
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, state)
}
