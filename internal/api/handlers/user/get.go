package user

import (
	"context"
	"net/http"

	"Readout/internal/api/handlers"
	"Readout/internal/core/users"

	"github.com/go-chi/chi/v5"
)

// Reader is the part of the read-through repository the user handler uses.
type Reader interface {
	EnsureUser(ctx context.Context, name string) (*users.UserView, error)
}

// GetUserHandler serves author profiles
type GetUserHandler struct {
	reader Reader
}

// NewGetUserHandler creates a new get user handler
func NewGetUserHandler(reader Reader) *GetUserHandler {
	return &GetUserHandler{reader: reader}
}

// HandleGetUser returns the profile of an author, fetching it from Reddit the
// first time it is asked for.
// GET /api/users/{name}
func (h *GetUserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := users.ValidateUsername(name); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	view, err := h.reader.EnsureUser(r.Context(), name)
	if err != nil {
		handlers.WriteServiceError(w, err)
		return
	}
	handlers.WriteJSON(w, view)
}
