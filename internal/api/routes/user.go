package routes

import (
	"Readout/internal/api/handlers/user"

	"github.com/go-chi/chi/v5"
)

// RegisterUserRoutes registers the author profile endpoint
func RegisterUserRoutes(r chi.Router, reader user.Reader) {
	getUserHandler := user.NewGetUserHandler(reader)

	r.Get("/users/{name}", getUserHandler.HandleGetUser)
}
