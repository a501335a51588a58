package cmd

import (
	"fmt"
	"net/http"

	"teamreel/internal/hosting"
	"teamreel/pkg/config"
	"teamreel/pkg/httputil"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// buildHostingClient assembles the upload pipeline from config. With retries
// enabled the retry policy sits underneath the token-injecting transport, so
// re-attempts reuse the already minted access token. Streamed upload bodies
// cannot be replayed and get a single attempt regardless; metadata calls and
// buffered uploads are retried in full.
func buildHostingClient(cfg *config.Config, withRetries bool) (*hosting.Client, error) {
	if cfg.BrokerURL == "" {
		return nil, fmt.Errorf("BROKER_URL is not set; run 'teamreel setup' first")
	}
	if cfg.SessionToken == "" {
		return nil, fmt.Errorf("TEAMREEL_SESSION is not set; run 'teamreel setup' first")
	}

	var httpClient *http.Client
	if withRetries {
		httpClient = &http.Client{
			Transport: &httputil.Transport{
				Retry: httputil.NewRetryClient(nil, httputil.DefaultRetryConfig()),
			},
		}
	}

	tokens := hosting.NewBrokerTokenSource(cfg.BrokerURL, hosting.StaticSession(cfg.SessionToken), httpClient)

	return hosting.NewClient(hosting.Config{
		Tokens:     tokens,
		HTTPClient: httpClient,
		UploadURL:  cfg.API.UploadURL,
		VideosURL:  cfg.API.VideosURL,
		WatchURL:   cfg.API.WatchURL,
	}), nil
}

func resolveChannel(flagValue string, cfg *config.Config) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if cfg.ChannelID != "" {
		return cfg.ChannelID, nil
	}
	return "", fmt.Errorf("no channel given; pass --channel or set CHANNEL_ID")
}
