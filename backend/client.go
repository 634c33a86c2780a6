// Package backend implements the HTTP clients for the remote MedLinkr
// collaborators: prescription OCR upload, medicine search, bulk search, and
// the contact / review submission endpoints.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/medlinkr/medlinkr-api/interfaces"
	"github.com/medlinkr/medlinkr-api/logging"
)

// Compile-time checks to ensure Client implements the collaborator contracts
var (
	_ interfaces.UploadCollaborator     = (*Client)(nil)
	_ interfaces.SearchCollaborator     = (*Client)(nil)
	_ interfaces.BulkSearchCollaborator = (*Client)(nil)
	_ interfaces.ContactCollaborator    = (*Client)(nil)
	_ interfaces.ReviewCollaborator     = (*Client)(nil)
)

// Client talks to the MedLinkr backend. One Client is shared by every flow;
// it is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// postJSON sends payload to path and decodes the JSON response into out.
// Non-2xx statuses are returned as errors; the body is drained either way so
// connections can be reused.
func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "path", path, "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body for the log, not for the caller
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logging.Warn("Backend returned non-success status",
			"path", path,
			"status", resp.StatusCode,
			"body", string(snippet))
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	return nil
}
