package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// TokenSource mints a short-lived platform access token for a channel.
// Implementations must not cache: every public pipeline operation fetches a
// fresh token immediately before the call that consumes it.
type TokenSource interface {
	Token(ctx context.Context, channel string) (string, error)
}

// SessionFunc supplies the caller's app-session credential. It is consulted
// on every token fetch so an externally refreshed session is picked up.
type SessionFunc func(ctx context.Context) (string, error)

// StaticSession adapts a fixed session credential to a SessionFunc.
func StaticSession(token string) SessionFunc {
	return func(context.Context) (string, error) { return token, nil }
}

// BrokerTokenSource exchanges the caller's session credential plus a channel
// identity for an access token at the trusted backend broker. The broker,
// not the client, holds the long-lived OAuth secret and refresh token.
type BrokerTokenSource struct {
	baseURL    string
	session    SessionFunc
	httpClient *http.Client
}

func NewBrokerTokenSource(baseURL string, session SessionFunc, httpClient *http.Client) *BrokerTokenSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &BrokerTokenSource{
		baseURL:    baseURL,
		session:    session,
		httpClient: httpClient,
	}
}

type tokenRequest struct {
	ChannelID string `json:"channel_id"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (s *BrokerTokenSource) Token(ctx context.Context, channel string) (string, error) {
	if s.baseURL == "" {
		return "", errConfig("token broker URL is not configured")
	}
	if channel == "" {
		return "", errConfig("channel identity is required")
	}

	session, err := s.session(ctx)
	if err != nil {
		return "", &ClassifiedError{Kind: KindAuth, Message: "no active session; sign in first", cause: err}
	}
	if session == "" {
		return "", errAuth("no active session; sign in first")
	}

	payload, err := json.Marshal(tokenRequest{ChannelID: channel})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/token", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+session)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", ClassifyTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", Classify(resp.StatusCode, body)
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", &ClassifiedError{
			Kind:      KindServer,
			Message:   "the token broker returned an empty access token",
			Retriable: true,
			Raw:       string(body),
		}
	}

	return parsed.AccessToken, nil
}
