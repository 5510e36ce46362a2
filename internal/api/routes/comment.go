package routes

import (
	"Readout/internal/api/handlers/vote"
	"Readout/internal/core/reader"

	"github.com/go-chi/chi/v5"
)

// RegisterCommentRoutes registers comment vote and save endpoints
func RegisterCommentRoutes(r chi.Router, svc reader.Service) {
	voteHandler := vote.NewVoteHandler(svc.VoteComment)
	saveHandler := vote.NewSaveHandler(svc.SetCommentSaved)

	r.Post("/comments/{id}/vote", voteHandler.HandleVote)
	r.Post("/comments/{id}/save", saveHandler.HandleSave)
}
