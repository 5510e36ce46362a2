package routes

import (
	"Readout/internal/api/handlers/subreddit"

	"github.com/go-chi/chi/v5"
)

// RegisterSubredditRoutes registers the subscription endpoints
func RegisterSubredditRoutes(r chi.Router, reader subreddit.Reader) {
	syncHandler := subreddit.NewSyncHandler(reader)
	listHandler := subreddit.NewListHandler(reader)

	r.Post("/subreddits/sync", syncHandler.HandleSync)
	r.Get("/subreddits", listHandler.HandleList)
}
