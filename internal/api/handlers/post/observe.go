package post

import (
	"context"
	"log"
	"net/http"
	"time"

	"Readout/internal/api/handlers"
	"Readout/internal/core/posts"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// ObservePostHandler pushes a post to a WebSocket client whenever it changes
type ObservePostHandler struct {
	reader   Reader
	upgrader websocket.Upgrader
}

// NewObservePostHandler creates a new observe handler. checkOrigin may be nil
// to accept same-origin requests only.
func NewObservePostHandler(reader Reader, checkOrigin func(r *http.Request) bool) *ObservePostHandler {
	return &ObservePostHandler{
		reader: reader,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
	}
}

// HandleObservePost upgrades to a WebSocket and streams the post view
// GET /api/posts/{id}/observe
func (h *ObservePostHandler) HandleObservePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := posts.ValidateID(id); err != nil {
		handlers.WriteServiceError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		log.Printf("Failed to upgrade observe connection: %v", err)
		return
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			log.Printf("Failed to close WebSocket connection: %v", closeErr)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates, err := h.reader.ObservePost(ctx, id)
	if err != nil {
		writeClose(conn, websocket.CloseInternalServerErr, err.Error())
		return
	}

	// The read loop only handles control frames and detects the client leaving
	go func() {
		defer cancel()
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case view, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(view); err != nil {
				log.Printf("Failed to push post %s: %v", id, err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-ctx.Done():
			writeClose(conn, websocket.CloseNormalClosure, "")
			return
		}
	}
}

func writeClose(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
