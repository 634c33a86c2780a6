package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/medlinkr/medlinkr-api/entities"
	"github.com/medlinkr/medlinkr-api/metrics"
)

// searchRequest is the wire shape of the free-text search endpoint.
type searchRequest struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// SearchMedicines resolves one medicine name. The location hint is optional
// and only biases purchase links, it never filters out results.
func (c *Client) SearchMedicines(ctx context.Context, name, location string) (*entities.SearchResult, error) {
	start := time.Now()
	var result entities.SearchResult
	err := c.postJSON(ctx, "/api/medicine/search", searchRequest{Name: name, Location: location}, &result)
	metrics.ObserveCollaborator("search", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("medicine search failed: %w", err)
	}

	// The backend echoes a query field, but not reliably; pin it to the
	// name that was actually asked for.
	result.Query = name

	return &result, nil
}
