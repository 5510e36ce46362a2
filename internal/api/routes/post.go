package routes

import (
	"net/http"

	"Readout/internal/api/handlers/post"
	"Readout/internal/api/handlers/vote"
	"Readout/internal/core/reader"

	"github.com/go-chi/chi/v5"
)

// RegisterPostRoutes registers post endpoints, including the comment listing
// and the WebSocket observe stream
func RegisterPostRoutes(r chi.Router, svc reader.Service, checkOrigin func(r *http.Request) bool) {
	getPostHandler := post.NewGetPostHandler(svc)
	refreshPostHandler := post.NewRefreshPostHandler(svc)
	getCommentsHandler := post.NewGetCommentsHandler(svc)
	observeHandler := post.NewObservePostHandler(svc, checkOrigin)
	voteHandler := vote.NewVoteHandler(svc.VotePost)
	saveHandler := vote.NewSaveHandler(svc.SetPostSaved)

	r.Route("/posts/{id}", func(r chi.Router) {
		r.Get("/", getPostHandler.HandleGetPost)
		r.Post("/refresh", refreshPostHandler.HandleRefreshPost)
		r.Get("/comments", getCommentsHandler.HandleGetComments)
		r.Get("/observe", observeHandler.HandleObservePost)
		r.Post("/vote", voteHandler.HandleVote)
		r.Post("/save", saveHandler.HandleSave)
	})
}
