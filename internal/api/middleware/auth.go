package middleware

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
)

// TokenAuthMiddleware guards the API with a shared bearer token. The server
// acts on the configured Reddit account, so anyone who can reach it can vote
// and save as that account.
type TokenAuthMiddleware struct {
	token []byte
}

// NewTokenAuthMiddleware creates a token auth middleware for token
func NewTokenAuthMiddleware(token string) *TokenAuthMiddleware {
	return &TokenAuthMiddleware{token: []byte(token)}
}

// RequireAuth rejects requests without the configured token with 401.
// The token is read from "Authorization: Bearer <token>", or from the
// access_token query parameter for WebSocket upgrades, which browsers
// cannot send headers with.
func (m *TokenAuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := requestToken(r)
		if !ok {
			writeAuthError(w, "Missing Authorization header")
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), m.token) != 1 {
			log.Printf("[AUTH_FAILURE] ip=%s method=%s path=%s", r.RemoteAddr, r.Method, r.URL.Path)
			writeAuthError(w, "Invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func requestToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			return "", false
		}
		return strings.TrimSpace(token), true
	}

	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, true
		}
	}
	return "", false
}

// writeAuthError writes a JSON error response for authentication failures
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	response := `{"error":"AuthenticationRequired","message":"` + message + `"}`
	if _, err := w.Write([]byte(response)); err != nil {
		log.Printf("Failed to write auth error response: %v", err)
	}
}
