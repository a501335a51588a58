package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ReconcileResult reports what the post-creation check found. The check is
// best-effort: a failure here never fails the upload that preceded it, but
// callers and tests can observe it instead of having it swallowed.
type ReconcileResult struct {
	// Checked is true when the read-back succeeded and privacy was compared.
	Checked bool
	// Corrected is true when a corrective write was issued and accepted.
	Corrected bool
	// Err holds the read or correction failure, if any.
	Err error
}

// Reconcile re-reads the video and, if the platform silently applied a
// different privacy status than requested, issues one corrective status
// write. Privacy is the only field the platform has been observed to
// override on creation.
func (c *Client) Reconcile(ctx context.Context, token, videoID string, intended Metadata) ReconcileResult {
	current, err := c.read(ctx, token, videoID)
	if err != nil {
		return ReconcileResult{Err: fmt.Errorf("failed to read back video: %w", err)}
	}

	if current.Status.PrivacyStatus == intended.Privacy {
		return ReconcileResult{Checked: true}
	}

	// The status write requires the audience declaration on every call.
	update := struct {
		ID     string      `json:"id"`
		Status videoStatus `json:"status"`
	}{
		ID: videoID,
		Status: videoStatus{
			PrivacyStatus:           intended.Privacy,
			SelfDeclaredMadeForKids: intended.MadeForKids,
		},
	}
	if err := c.put(ctx, token, "status", update); err != nil {
		return ReconcileResult{Checked: true, Err: fmt.Errorf("failed to correct privacy status: %w", err)}
	}

	return ReconcileResult{Checked: true, Corrected: true}
}

func (c *Client) read(ctx context.Context, token, videoID string) (*videoResource, error) {
	url := fmt.Sprintf("%s?id=%s&part=snippet,status", c.videosURL, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create read request: %w", err)
	}

	resp, err := c.authedClient(ctx, token).Do(req)
	if err != nil {
		return nil, ClassifyTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, Classify(resp.StatusCode, body)
	}

	var list videoListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to parse video list: %w", err)
	}
	if len(list.Items) == 0 {
		return nil, errValidation("video %s was not found", videoID)
	}

	return &list.Items[0], nil
}

func (c *Client) put(ctx context.Context, token, parts string, resource any) error {
	payload, err := json.Marshal(resource)
	if err != nil {
		return fmt.Errorf("failed to marshal video resource: %w", err)
	}

	url := fmt.Sprintf("%s?part=%s", c.videosURL, parts)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create update request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.authedClient(ctx, token).Do(req)
	if err != nil {
		return ClassifyTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return Classify(resp.StatusCode, body)
	}

	return nil
}
