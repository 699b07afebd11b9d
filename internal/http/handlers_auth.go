package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type authResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// handleAnonymousAuth mints a new anonymous identity and its token.
func (s *Server) handleAnonymousAuth(w http.ResponseWriter, r *http.Request) {
	userID, token, err := s.issuer.IssueAnonymous()
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to issue anonymous token", "error", err)
		respondError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	slog.InfoContext(r.Context(), "Anonymous session issued", "user_id", userID)
	respondJSON(w, http.StatusCreated, authResponse{UserID: userID, Token: token})
}

var errNoToken = errors.New("no bearer token")

// authenticate resolves the user id from the Authorization header, or from
// the token query parameter for websocket clients that cannot set headers.
func (s *Server) authenticate(r *http.Request) (string, error) {
	raw := ""
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		raw = strings.TrimPrefix(h, "Bearer ")
	} else if q := r.URL.Query().Get("token"); q != "" {
		raw = q
	}
	if raw == "" {
		return "", errNoToken
	}
	return s.issuer.Verify(raw)
}

// handleWebSocket upgrades the connection and attaches it to the hub.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := s.authenticate(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.ErrorContext(r.Context(), "WebSocket upgrade failed", "error", err)
		return
	}

	s.hub.Register(conn, userID)
}
