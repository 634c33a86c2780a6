package session

import (
	"context"
	"strings"
	"sync"

	"github.com/medlinkr/medlinkr-api/entities"
	"github.com/medlinkr/medlinkr-api/errs"
	"github.com/medlinkr/medlinkr-api/interfaces"
	"github.com/medlinkr/medlinkr-api/logging"
)

// SearchSession drives free-text medicine searches. It is gated on the
// presence of an access token: without one, Search fails before any network
// traffic. The gate is advisory, the backend enforces authorization on its
// own.
type SearchSession struct {
	searcher interfaces.SearchCollaborator
	tokens   interfaces.TokenSource

	mu         sync.Mutex
	generation uint64
	query      string
	result     *entities.SearchResult
	failure    *errs.FlowError
}

// NewSearchSession creates a search session over the given collaborator and
// token source.
func NewSearchSession(searcher interfaces.SearchCollaborator, tokens interfaces.TokenSource) *SearchSession {
	return &SearchSession{searcher: searcher, tokens: tokens}
}

// Search resolves one free-text query, optionally biased by a location hint.
// A query that is blank after trimming is a silent no-op. On success the full
// result is stored, including the untruncated comparison summary. On failure
// the query is preserved so the caller can retry it unchanged.
func (s *SearchSession) Search(ctx context.Context, query, locationHint string) (*entities.SearchResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, nil
	}

	if _, ok := s.tokens.Token(); !ok {
		return nil, errs.New(errs.KindAuthenticationRequired, "please sign in to search for medicines")
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.query = trimmed
	s.failure = nil
	s.mu.Unlock()

	result, err := s.searcher.SearchMedicines(ctx, trimmed, locationHint)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		logging.Debug("Discarding stale search response", "query", trimmed)
		return nil, nil
	}

	if err != nil {
		s.failure = errs.Wrap(errs.KindSearchRequestError, "could not search for "+trimmed, err)
		return nil, s.failure
	}

	s.result = result
	return result, nil
}

// LastResult returns the most recent successful search result.
func (s *SearchSession) LastResult() *entities.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// LastQuery returns the most recent non-blank query, kept across failures.
func (s *SearchSession) LastQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Reset clears the stored query and result, discarding in-flight responses.
func (s *SearchSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.query = ""
	s.result = nil
	s.failure = nil
}
