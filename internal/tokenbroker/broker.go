// Package tokenbroker is the trusted backend side of the upload pipeline's
// authentication. It holds the platform OAuth client secret and the
// per-channel refresh tokens, and hands out short-lived access tokens to
// callers that present a valid app session. Channel registration (the
// one-time OAuth consent exchange) also happens here, entirely server-side:
// no secret or refresh token ever reaches a client.
package tokenbroker

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var platformScopes = []string{
	"https://www.googleapis.com/auth/youtube.upload",
	"https://www.googleapis.com/auth/youtube",
}

// OAuthConfig builds the server-held OAuth client configuration.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       platformScopes,
		RedirectURL:  redirectURL,
	}
}

// SessionValidator checks a caller's app-session credential. The broker does
// not own session semantics; the surrounding backend injects its own check.
type SessionValidator func(r *http.Request, session string) error

// Config wires a broker Server.
type Config struct {
	OAuth    *oauth2.Config
	Secrets  SecretStore
	Sessions SessionValidator
	Logger   *slog.Logger
}

type Server struct {
	oauth    *oauth2.Config
	secrets  SecretStore
	sessions SessionValidator
	logger   *slog.Logger
}

func NewServer(cfg Config) *Server {
	s := &Server{
		oauth:    cfg.OAuth,
		secrets:  cfg.Secrets,
		sessions: cfg.Sessions,
		logger:   cfg.Logger,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", s.handleToken)
	mux.HandleFunc("/register", s.handleRegister)
	mux.HandleFunc("/callback", s.handleCallback)
	return mux
}

func secretName(channel string) string {
	return "yt-refresh-" + channel
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	session := bearerToken(r)
	if session == "" {
		writeError(w, http.StatusUnauthorized, "missing session credential")
		return
	}
	if err := s.sessions(r, session); err != nil {
		s.logger.Debug("session rejected", "error", err)
		writeError(w, http.StatusUnauthorized, "invalid session credential")
		return
	}

	var req struct {
		ChannelID string `json:"channel_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChannelID == "" {
		writeError(w, http.StatusBadRequest, "channel_id is required")
		return
	}

	refresh, err := s.secrets.Get(r.Context(), secretName(req.ChannelID))
	if errors.Is(err, ErrSecretNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("channel %s is not registered", req.ChannelID))
		return
	}
	if err != nil {
		s.logger.Error("failed to load refresh token", "channel", req.ChannelID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not load channel credentials")
		return
	}

	token, err := s.oauth.TokenSource(r.Context(), &oauth2.Token{RefreshToken: refresh}).Token()
	if err != nil {
		s.logger.Error("token exchange failed", "channel", req.ChannelID, "error", err)
		writeError(w, http.StatusBadGateway, "token exchange with the platform failed")
		return
	}

	expiresIn := 0
	if !token.Expiry.IsZero() {
		expiresIn = int(time.Until(token.Expiry).Seconds())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token.AccessToken,
		"expires_in":   expiresIn,
	})
}

// handleRegister starts the one-time consent flow for a channel. The state
// parameter carries the channel identity through the round trip.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		writeError(w, http.StatusBadRequest, "channel is required")
		return
	}

	url := s.oauth.AuthCodeURL(channel, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	http.Redirect(w, r, url, http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	channel := r.URL.Query().Get("state")
	if code == "" || channel == "" {
		writeError(w, http.StatusBadRequest, "missing code or state")
		return
	}

	token, err := s.oauth.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Error("code exchange failed", "channel", channel, "error", err)
		writeError(w, http.StatusBadGateway, "code exchange with the platform failed")
		return
	}
	if token.RefreshToken == "" {
		writeError(w, http.StatusBadGateway, "the platform did not return a refresh token; retry with consent")
		return
	}

	if err := s.secrets.Set(r.Context(), secretName(channel), token.RefreshToken); err != nil {
		s.logger.Error("failed to store refresh token", "channel", channel, "error", err)
		writeError(w, http.StatusInternalServerError, "could not store channel credentials")
		return
	}

	s.logger.Info("channel registered", "channel", channel)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprintf(w, "<html><body><h1>Success!</h1><p>Channel %s is registered. You can close this window.</p></body></html>", channel)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, prefix))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError uses the same error envelope the platform uses, so pipeline
// clients can run broker responses through the same classifier.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": message},
	})
}
