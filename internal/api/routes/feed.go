package routes

import (
	"Readout/internal/api/handlers/feed"

	"github.com/go-chi/chi/v5"
)

// RegisterFeedRoutes registers the feed and search endpoints
func RegisterFeedRoutes(r chi.Router, reader feed.Reader) {
	getFeedHandler := feed.NewGetFeedHandler(reader)
	searchHandler := feed.NewSearchHandler(reader)

	r.Get("/feed", getFeedHandler.HandleGetFeed)
	r.Get("/search", searchHandler.HandleSearch)
}
