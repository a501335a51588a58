package hosting

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
)

const (
	defaultUploadURL = "https://www.googleapis.com/upload/youtube/v3/videos"
	defaultVideosURL = "https://www.googleapis.com/youtube/v3/videos"
	defaultWatchURL  = "https://youtube.com/watch"
)

// Config wires a Client. Only Tokens is required; URLs default to the real
// platform endpoints and are injectable for tests.
type Config struct {
	Tokens     TokenSource
	HTTPClient *http.Client
	UploadURL  string
	VideosURL  string
	WatchURL   string
	Logger     *slog.Logger
}

// Client runs the upload pipeline against the hosting platform. Every public
// operation is one sequential call chain that mints its own token; calls are
// independent and may run concurrently for different videos, but nothing
// coordinates concurrent calls for the same video id.
type Client struct {
	tokens     TokenSource
	httpClient *http.Client
	uploadURL  string
	videosURL  string
	watchURL   string
	logger     *slog.Logger
}

func NewClient(cfg Config) *Client {
	c := &Client{
		tokens:     cfg.Tokens,
		httpClient: cfg.HTTPClient,
		uploadURL:  cfg.UploadURL,
		videosURL:  cfg.VideosURL,
		watchURL:   cfg.WatchURL,
		logger:     cfg.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	if c.uploadURL == "" {
		c.uploadURL = defaultUploadURL
	}
	if c.videosURL == "" {
		c.videosURL = defaultVideosURL
	}
	if c.watchURL == "" {
		c.watchURL = defaultWatchURL
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Upload sends one asset in a single multipart request, then reconciles the
// applied privacy status against the caller's intent. A failed reconcile is
// logged and reported through the resource's metadata, never as an upload
// failure.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*Resource, error) {
	token, err := c.tokens.Token(ctx, req.Channel)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch access token: %w", err)
	}
	emit(req.Progress, StageTokenAcquired)

	body, err := buildBody(req.Source, req.Metadata)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()
	emit(req.Progress, StageEncoded)

	created, err := c.send(ctx, token, body, req.Progress)
	if err != nil {
		return nil, err
	}

	res := &Resource{
		ID:       created.ID,
		URL:      fmt.Sprintf("%s?v=%s", c.watchURL, created.ID),
		Metadata: metadataFromWire(*created),
	}

	result := c.Reconcile(ctx, token, created.ID, req.Metadata)
	if result.Err != nil {
		c.logger.Warn("privacy reconciliation failed; keeping platform status",
			"video_id", created.ID,
			"requested", req.Metadata.Privacy,
			"applied", res.Metadata.Privacy,
			"error", result.Err)
	} else if result.Corrected {
		res.Metadata.Privacy = req.Metadata.Privacy
	}

	emit(req.Progress, StageCompleted)
	return res, nil
}

// Update merges the caller's metadata onto the server's current copy and
// writes the full resource back. Delete removes by id, treating an already
// missing video as success. Both mint a fresh token for the owning channel.
func (c *Client) Update(ctx context.Context, channel, videoID string, meta Metadata) error {
	token, err := c.tokens.Token(ctx, channel)
	if err != nil {
		return fmt.Errorf("failed to fetch access token: %w", err)
	}
	return c.update(ctx, token, videoID, meta)
}

func (c *Client) Delete(ctx context.Context, channel, videoID string) error {
	token, err := c.tokens.Token(ctx, channel)
	if err != nil {
		return fmt.Errorf("failed to fetch access token: %w", err)
	}
	return c.delete(ctx, token, videoID)
}

// Read fetches the platform's current view of a video.
func (c *Client) Read(ctx context.Context, channel, videoID string) (*Resource, error) {
	token, err := c.tokens.Token(ctx, channel)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch access token: %w", err)
	}
	v, err := c.read(ctx, token, videoID)
	if err != nil {
		return nil, err
	}
	return &Resource{
		ID:       v.ID,
		URL:      fmt.Sprintf("%s?v=%s", c.watchURL, v.ID),
		Metadata: metadataFromWire(*v),
	}, nil
}

// authedClient wraps the configured transport with the bearer token for one
// operation. The token is never stored on the Client.
func (c *Client) authedClient(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

// emit publishes a milestone without blocking: a slow or absent consumer
// never stalls the upload.
func emit(progress chan<- UploadProgress, stage Stage) {
	if progress == nil {
		return
	}
	select {
	case progress <- UploadProgress{Stage: stage, Percent: stagePercent[stage]}:
	default:
	}
}
