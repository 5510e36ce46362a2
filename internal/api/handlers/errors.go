package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"Readout/internal/core/comments"
	"Readout/internal/core/mediators"
	"Readout/internal/core/paging"
	"Readout/internal/core/posts"
	"Readout/internal/core/subreddits"
	"Readout/internal/core/users"
	"Readout/internal/core/votes"
	"Readout/internal/reddit"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a standardized JSON error response
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: errorType, Message: message}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

// WriteJSON writes v with status 200.
func WriteJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers already sent
		log.Printf("ERROR: Failed to encode response: %v", err)
	}
}

// WriteServiceError maps errors from the core services and the remote client
// to HTTP responses.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, paging.ErrInvalidCursor):
		WriteError(w, http.StatusBadRequest, "InvalidCursor", "The provided cursor is invalid")
	case errors.Is(err, posts.ErrInvalidPostID),
		errors.Is(err, comments.ErrInvalidCommentID),
		errors.Is(err, mediators.ErrInvalidScope),
		errors.Is(err, votes.ErrInvalidSubject),
		errors.Is(err, votes.ErrInvalidDirection),
		users.IsInvalidUsername(err):
		WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
	case posts.IsNotFound(err):
		WriteError(w, http.StatusNotFound, "PostNotFound", "Post is not cached")
	case comments.IsNotFound(err):
		WriteError(w, http.StatusNotFound, "CommentNotFound", "Comment is not cached")
	case votes.IsNotFound(err):
		WriteError(w, http.StatusNotFound, "SubjectNotFound", "Post or comment is not cached")
	case users.IsNotFound(err), reddit.IsNotFound(err):
		WriteError(w, http.StatusNotFound, "NotFound", "Not found")
	case errors.Is(err, users.ErrProfileUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "ProfileUnavailable", "Profile fetch failed recently, try again later")
	case errors.Is(err, reddit.ErrRateLimited):
		WriteError(w, http.StatusTooManyRequests, "UpstreamRateLimited", "Reddit rate limit reached")
	case errors.Is(err, reddit.ErrUnavailable), errors.Is(err, reddit.ErrCircuitOpen):
		WriteError(w, http.StatusServiceUnavailable, "UpstreamUnavailable", "Reddit is unavailable")
	case reddit.IsAuthError(err):
		WriteError(w, http.StatusBadGateway, "UpstreamAuthFailed", "Reddit rejected the credentials")
	case errors.Is(err, reddit.ErrMalformedResponse), errors.Is(err, subreddits.ErrTooManyPages):
		WriteError(w, http.StatusBadGateway, "UpstreamError", "Unexpected response from Reddit")
	default:
		log.Printf("ERROR: service error: %v", err)
		WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
