package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/medlinkr/medlinkr-api/entities"
	"github.com/medlinkr/medlinkr-api/metrics"
)

// SendContactForm delivers a contact-us submission. Validation happens before
// this call; the client sends whatever it is given.
func (c *Client) SendContactForm(ctx context.Context, form entities.ContactForm) (*entities.SubmissionResult, error) {
	start := time.Now()
	var result entities.SubmissionResult
	err := c.postJSON(ctx, "/contact-us", form, &result)
	metrics.ObserveCollaborator("contact", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("contact form submission failed: %w", err)
	}

	return &result, nil
}

// SubmitReview delivers a rating/review submission.
func (c *Client) SubmitReview(ctx context.Context, form entities.ReviewForm) (*entities.SubmissionResult, error) {
	start := time.Now()
	var result entities.SubmissionResult
	err := c.postJSON(ctx, "/rating-review/add", form, &result)
	metrics.ObserveCollaborator("review", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("review submission failed: %w", err)
	}

	return &result, nil
}
