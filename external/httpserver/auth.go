package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Typenine/Discord-Meeting-App-sub000/internal/identity"
)

type tokenRequest struct {
	Code string `json:"code"`
}

type tokenResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int64         `json:"expires_in,omitempty"`
	Scope       string        `json:"scope,omitempty"`
	User        identity.User `json:"user"`
}

type meResponse struct {
	identity.User
	DisplayName string `json:"display_name"`
}

// handleToken completes the Embedded App SDK authorize flow: the client posts
// the authorization code and receives an access token plus the resolved user.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "missing_code")
		return
	}
	tok, err := s.identity.Exchange(r.Context(), req.Code)
	if err != nil {
		writeIdentityError(w, err)
		return
	}
	user, err := s.identity.CurrentUser(r.Context(), tok.AccessToken)
	if err != nil {
		writeIdentityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   tok.ExpiresIn,
		Scope:       tok.Scope,
		User:        user,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	user, err := s.identity.CurrentUser(r.Context(), token)
	if err != nil {
		writeIdentityError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: user, DisplayName: user.DisplayName()})
}

func writeIdentityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrDisabled):
		writeError(w, http.StatusServiceUnavailable, "oauth_disabled")
	case errors.Is(err, identity.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, "invalid_code")
	case errors.Is(err, identity.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid_token")
	default:
		slog.Error("identity provider failed", "error", err)
		writeError(w, http.StatusBadGateway, "identity_unavailable")
	}
}
