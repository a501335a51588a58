package hosting

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// update reads the current resource and merges the caller's fields onto it
// before writing the whole object back. The platform requires the full
// resource on every metadata write and would null out anything omitted, so a
// blind overwrite is never issued.
func (c *Client) update(ctx context.Context, token, videoID string, meta Metadata) error {
	current, err := c.read(ctx, token, videoID)
	if err != nil {
		return fmt.Errorf("failed to read current metadata: %w", err)
	}

	merged := mergeMetadata(*current, meta)
	merged.ID = videoID

	if err := c.put(ctx, token, "snippet,status", merged); err != nil {
		return fmt.Errorf("failed to update video %s: %w", videoID, err)
	}
	return nil
}

// mergeMetadata overlays the caller-set fields onto the server copy. Zero
// values mean "not set by the caller" and leave the server-held value alone.
func mergeMetadata(current videoResource, meta Metadata) videoResource {
	if meta.Title != "" {
		current.Snippet.Title = meta.Title
	}
	if meta.Description != "" {
		current.Snippet.Description = meta.Description
	}
	if meta.Tags != nil {
		current.Snippet.Tags = meta.Tags
	}
	if meta.CategoryID != "" {
		current.Snippet.CategoryID = meta.CategoryID
	}
	if meta.Language != "" {
		current.Snippet.DefaultLanguage = meta.Language
	}
	if meta.AudioLanguage != "" {
		current.Snippet.DefaultAudioLanguage = meta.AudioLanguage
	}
	if meta.Privacy != "" {
		current.Status.PrivacyStatus = meta.Privacy
		current.Status.SelfDeclaredMadeForKids = meta.MadeForKids
	}
	return current
}

// delete removes the video by id. A 404 counts as success so that repeated
// deletes are idempotent.
func (c *Client) delete(ctx context.Context, token, videoID string) error {
	url := fmt.Sprintf("%s?id=%s", c.videosURL, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}

	resp, err := c.authedClient(ctx, token).Do(req)
	if err != nil {
		return ClassifyTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return Classify(resp.StatusCode, body)
	}

	return nil
}
