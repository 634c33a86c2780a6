package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/medlinkr/medlinkr-api/entities"
	"github.com/medlinkr/medlinkr-api/metrics"
)

// bulkRequest is the wire shape of the bulk search endpoint. All names travel
// in one request; the backend answers with one entry per name, in order.
type bulkRequest struct {
	Names []string `json:"names"`
}

// BulkSearch resolves every name in one round trip. The returned slice is
// positionally aligned with names; length checking is the caller's concern.
func (c *Client) BulkSearch(ctx context.Context, names []string) ([]entities.BulkEntry, error) {
	start := time.Now()
	var entries []entities.BulkEntry
	err := c.postJSON(ctx, "/api/medicine/search/bulk", bulkRequest{Names: names}, &entries)
	metrics.ObserveCollaborator("bulk_search", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("bulk medicine search failed: %w", err)
	}

	return entries, nil
}
