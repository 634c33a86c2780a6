package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/medlinkr/medlinkr-api/entities"
	"github.com/medlinkr/medlinkr-api/logging"
	"github.com/medlinkr/medlinkr-api/metrics"
)

// UploadPrescription posts one prescription image to the OCR endpoint as a
// multipart body with a single "image" part and returns the extraction
// result verbatim. Interpreting an empty extraction is the caller's concern.
func (c *Client) UploadPrescription(ctx context.Context, filename string, image io.Reader) (result *entities.UploadResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveCollaborator("upload", time.Since(start).Seconds(), err) }()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart form: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to copy image into multipart form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close upload response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("/ocr/upload returned status %d", resp.StatusCode)
	}

	var decoded entities.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}

	return &decoded, nil
}
