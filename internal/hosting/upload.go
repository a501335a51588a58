package hosting

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// send performs the single multipart POST. The whole asset goes in one
// request; there is no chunking, no resumable session, and no retrying here.
func (c *Client) send(ctx context.Context, token string, body *multipartBody, progress chan<- UploadProgress) (*videoResource, error) {
	url := fmt.Sprintf("%s?uploadType=multipart&part=snippet,status", c.uploadURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body.reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", body.contentType)
	// A buffered body advertises how to replay itself; retrying transports
	// under this client must not resend a body they cannot rebuild.
	req.GetBody = body.getBody

	emit(progress, StageTransferStarted)

	resp, err := c.authedClient(ctx, token).Do(req)
	if err != nil {
		return nil, ClassifyTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()
	emit(progress, StageTransferDone)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ce := Classify(resp.StatusCode, respBody)
		c.logger.Debug("upload rejected", "status", resp.StatusCode, "body", ce.Raw)
		return nil, ce
	}

	var created videoResource
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w", err)
	}
	if created.ID == "" {
		return nil, &ClassifiedError{
			Kind:      KindServer,
			Message:   "the platform did not return a video id",
			Retriable: true,
			Raw:       string(respBody),
		}
	}

	return &created, nil
}
