package cmd

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teamreel/internal/tokenbroker"
	"teamreel/pkg/config"

	"github.com/spf13/cobra"
)

var brokerInMemory bool

var brokerCmd = &cobra.Command{
	Use:   "broker",
	Short: "Run the token broker",
	Long: `Run the backend that holds the platform OAuth credentials and mints
short-lived access tokens for the upload pipeline. Refresh tokens are
kept in Secret Manager, or in memory with --in-memory for local
development.`,
	RunE: runBroker,
}

func init() {
	brokerCmd.Flags().BoolVar(&brokerInMemory, "in-memory", false, "Keep refresh tokens in memory instead of Secret Manager")
	rootCmd.AddCommand(brokerCmd)
}

func runBroker(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg := config.Load()

	if cfg.BrokerOAuthClientID == "" || cfg.BrokerOAuthClientSecret == "" {
		return errors.New("BROKER_OAUTH_CLIENT_ID and BROKER_OAUTH_CLIENT_SECRET must be set")
	}
	if cfg.SessionToken == "" {
		return errors.New("TEAMREEL_SESSION must be set; the broker validates caller sessions against it")
	}
	if cfg.Broker.RedirectURL == "" {
		return errors.New("broker.redirect_url must be set in config.yaml")
	}

	secrets, err := buildSecretStore(ctx, cfg)
	if err != nil {
		return err
	}

	broker := tokenbroker.NewServer(tokenbroker.Config{
		OAuth:    tokenbroker.OAuthConfig(cfg.BrokerOAuthClientID, cfg.BrokerOAuthClientSecret, cfg.Broker.RedirectURL),
		Secrets:  secrets,
		Sessions: sharedSessionValidator(cfg.SessionToken),
	})

	server := &http.Server{
		Addr:              cfg.Broker.ListenAddr,
		Handler:           broker.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("Broker listening", "addr", cfg.Broker.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		slog.Info("Shutting down...")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func buildSecretStore(ctx context.Context, cfg *config.Config) (tokenbroker.SecretStore, error) {
	if brokerInMemory {
		slog.Warn("Using in-memory secret store; registered channels are lost on restart")
		return tokenbroker.NewMemoryStore(), nil
	}

	if cfg.GoogleCloudProject == "" {
		return nil, errors.New("GOOGLE_CLOUD_PROJECT must be set, or pass --in-memory for local development")
	}

	store, err := tokenbroker.NewSecretManagerStore(ctx, cfg.GoogleCloudProject)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Secret Manager: %w", err)
	}
	return store, nil
}

// sharedSessionValidator accepts the single session token from the
// environment. A real deployment swaps this for the app backend's session
// lookup.
func sharedSessionValidator(expected string) tokenbroker.SessionValidator {
	return func(r *http.Request, session string) error {
		if subtle.ConstantTimeCompare([]byte(session), []byte(expected)) != 1 {
			return errors.New("unknown session")
		}
		return nil
	}
}
