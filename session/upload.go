package session

import (
	"context"
	"io"
	"strings"

	"github.com/medlinkr/medlinkr-api/entities"
	"github.com/medlinkr/medlinkr-api/errs"
	"github.com/medlinkr/medlinkr-api/logging"
)

// SelectFile accepts a prescription image and uploads it for extraction.
// Non-image MIME types are rejected without touching session state. An
// accepted file clears any previous names and results, issues exactly one
// upload call, and transitions through Uploading to either
// AwaitingConfirmation or Failed.
func (s *UploadSession) SelectFile(ctx context.Context, filename, mimeType string, image io.Reader) error {
	if !strings.HasPrefix(mimeType, "image/") {
		return errs.New(errs.KindInvalidFileType, "please select an image file")
	}

	s.mu.Lock()
	if s.status == StatusUploading || s.status == StatusBulkSearching {
		s.mu.Unlock()
		return errs.New(errs.KindInvalidState, "a request is already in progress")
	}

	s.generation++
	gen := s.generation
	s.status = StatusUploading
	s.fileName = filename
	s.extractedNames = nil
	s.results = nil
	s.failure = nil
	s.mu.Unlock()

	result, err := s.uploader.UploadPrescription(ctx, filename, image)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// The session was reset or restarted while the upload was in
		// flight; this response belongs to a previous attempt.
		logging.Debug("Discarding stale upload response", "session_id", s.ID)
		return nil
	}

	if err != nil {
		// The file is kept so the caller can retry the same selection.
		s.status = StatusFailed
		s.failure = errs.Wrap(errs.KindUploadTransportError, "could not upload the prescription", err)
		return s.failure
	}

	names := usableNames(result)
	if len(names) == 0 {
		s.status = StatusFailed
		s.failure = errs.New(errs.KindExtractionEmpty, "no medicine names could be read from the image")
		return s.failure
	}

	s.status = StatusAwaitingConfirmation
	s.extractedNames = names
	return nil
}

// usableNames returns the extracted names when the upload result signals a
// successful extraction, nil otherwise. Names are stored verbatim.
func usableNames(result *entities.UploadResult) []string {
	if result == nil || result.StatusCode != 200 {
		return nil
	}
	return result.AnalysedMedicines
}

// ConfirmExtraction runs the bulk lookup for every extracted name in one
// request. It proceeds from AwaitingConfirmation, or from a failed bulk
// attempt whose names survived, so the lookup can be retried without
// re-uploading; anywhere else it is a no-op. The response must carry exactly
// one entry per requested name; each result is tagged with the name it was
// requested for so consumers never rely on array positions.
func (s *UploadSession) ConfirmExtraction(ctx context.Context) error {
	s.mu.Lock()
	if !s.confirmableLocked() {
		s.mu.Unlock()
		return nil
	}

	s.generation++
	gen := s.generation
	s.status = StatusBulkSearching
	s.failure = nil
	names := append([]string(nil), s.extractedNames...)
	s.mu.Unlock()

	entries, err := s.bulk.BulkSearch(ctx, names)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		logging.Debug("Discarding stale bulk response", "session_id", s.ID)
		return nil
	}

	if err != nil {
		// Names are retained so the confirmation can be retried.
		s.status = StatusFailed
		s.extractedNames = names
		s.failure = errs.Wrap(errs.KindBulkSearchError, "could not fetch results for the extracted medicines", err)
		return s.failure
	}

	if len(entries) != len(names) {
		s.status = StatusFailed
		s.extractedNames = names
		s.failure = errs.New(errs.KindResultMismatch, "received a different number of results than medicines requested")
		return s.failure
	}

	results := make([]entities.BulkLookupResult, len(entries))
	for i, entry := range entries {
		results[i] = entities.BulkLookupResult{
			MedicineName:     names[i],
			BuyLinks:         entry.BuyLinks,
			AlternativeNames: entry.AlternativeNames,
		}
	}

	s.status = StatusCompleted
	s.results = results
	return nil
}

// confirmableLocked reports whether a bulk lookup may start. The caller must
// hold s.mu. A Failed session stays confirmable when the failure came from
// the bulk step itself and the names are still there.
func (s *UploadSession) confirmableLocked() bool {
	if s.status == StatusAwaitingConfirmation {
		return true
	}
	if s.status != StatusFailed || len(s.extractedNames) == 0 || s.failure == nil {
		return false
	}
	return s.failure.Kind == errs.KindBulkSearchError || s.failure.Kind == errs.KindResultMismatch
}

// CancelExtraction resets the session to Idle, discarding the selected file,
// the extracted names and any results. In-flight responses from before the
// cancel are discarded by the generation bump.
func (s *UploadSession) CancelExtraction() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.status = StatusIdle
	s.fileName = ""
	s.extractedNames = nil
	s.results = nil
	s.failure = nil
}
