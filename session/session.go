// Package session implements the orchestration core of the MedLinkr gateway:
// the prescription upload flow and the free-text search flow, each modelled
// as a small mutex-protected state machine. Sessions never retry on their
// own; every collaborator failure lands in a Failed state with a structured
// error and the caller decides whether to retry or start over.
package session

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/medlinkr/medlinkr-api/entities"
	"github.com/medlinkr/medlinkr-api/errs"
	"github.com/medlinkr/medlinkr-api/interfaces"
	"github.com/oklog/ulid/v2"
)

// Status is the lifecycle state of an upload session.
type Status string

const (
	StatusIdle                 Status = "idle"
	StatusUploading            Status = "uploading"
	StatusAwaitingConfirmation Status = "awaiting_confirmation"
	StatusBulkSearching        Status = "bulk_searching"
	StatusCompleted            Status = "completed"
	StatusFailed               Status = "failed"
)

// UploadSession drives one prescription image through upload, extraction
// confirmation and bulk lookup. All transitions are serialized by the
// internal mutex; collaborator calls run outside the lock and their
// responses are discarded when the session moved on in the meantime.
type UploadSession struct {
	ID        string
	CreatedAt time.Time

	uploader interfaces.UploadCollaborator
	bulk     interfaces.BulkSearchCollaborator

	mu             sync.Mutex
	status         Status
	generation     uint64
	fileName       string
	extractedNames []string
	results        []entities.BulkLookupResult
	failure        *errs.FlowError
}

// Snapshot is a point-in-time copy of a session, safe to serialize.
type Snapshot struct {
	ID             string                       `json:"sessionId"`
	Status         Status                       `json:"status"`
	FileName       string                       `json:"fileName,omitempty"`
	ExtractedNames []string                     `json:"extractedNames,omitempty"`
	Results        []entities.BulkLookupResult  `json:"results,omitempty"`
	Error          *SnapshotError               `json:"error,omitempty"`
}

// SnapshotError is the serializable form of a session failure.
type SnapshotError struct {
	Kind    errs.Kind `json:"kind"`
	Message string    `json:"message"`
}

// NewUploadSession creates an idle session with a fresh ULID identifier.
func NewUploadSession(uploader interfaces.UploadCollaborator, bulk interfaces.BulkSearchCollaborator) *UploadSession {
	now := time.Now().UTC()
	return &UploadSession{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		CreatedAt: now,
		uploader:  uploader,
		bulk:      bulk,
		status:    StatusIdle,
	}
}

// Status returns the current lifecycle state.
func (s *UploadSession) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns a copy of the observable session state.
func (s *UploadSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:       s.ID,
		Status:   s.status,
		FileName: s.fileName,
	}
	if len(s.extractedNames) > 0 {
		snap.ExtractedNames = append([]string(nil), s.extractedNames...)
	}
	if len(s.results) > 0 {
		snap.Results = append([]entities.BulkLookupResult(nil), s.results...)
	}
	if s.failure != nil {
		snap.Error = &SnapshotError{Kind: s.failure.Kind, Message: s.failure.Message}
	}
	return snap
}

// Failure returns the current error when the session is in Failed state.
func (s *UploadSession) Failure() *errs.FlowError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Registry is the thread-safe home of live upload sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*UploadSession
	uploader interfaces.UploadCollaborator
	bulk     interfaces.BulkSearchCollaborator
}

// NewRegistry creates an empty registry wired to the given collaborators.
func NewRegistry(uploader interfaces.UploadCollaborator, bulk interfaces.BulkSearchCollaborator) *Registry {
	return &Registry{
		sessions: make(map[string]*UploadSession),
		uploader: uploader,
		bulk:     bulk,
	}
}

// Create registers and returns a new idle session.
func (r *Registry) Create() *UploadSession {
	s := NewUploadSession(r.uploader, r.bulk)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get looks up a session by id.
func (r *Registry) Get(id string) (*UploadSession, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.New(errs.KindNotFound, "unknown session")
	}
	return s, nil
}

// Remove drops a session from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Clear drops every live session and returns how many were removed.
// Prescription sessions belong to the signed-in user, so sign-out clears
// them all. In-flight collaborator responses are discarded by each
// session's generation counter once the session is unreachable.
func (r *Registry) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := len(r.sessions)
	r.sessions = make(map[string]*UploadSession)
	return removed
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes terminal sessions older than maxAge and returns how many
// were dropped.
func (r *Registry) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		status := s.Status()
		if (status == StatusCompleted || status == StatusFailed) && s.CreatedAt.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
