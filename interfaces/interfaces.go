// Package interfaces defines the core abstractions of the MedLinkr gateway
// to improve testability, maintainability, and separation of concerns. The
// remote backend, the geocoding service, and the durable store are all
// collaborators the orchestration core depends on but never implements.
package interfaces

import (
	"context"
	"io"
	"time"

	"github.com/medlinkr/medlinkr-api/entities"
)

// UploadCollaborator accepts a prescription image and returns the extracted
// medicine names.
type UploadCollaborator interface {
	// UploadPrescription posts one image as a multipart body
	UploadPrescription(ctx context.Context, filename string, image io.Reader) (*entities.UploadResult, error)
}

// SearchCollaborator resolves one free-text medicine query, optionally
// biased by a location hint.
type SearchCollaborator interface {
	SearchMedicines(ctx context.Context, name, location string) (*entities.SearchResult, error)
}

// BulkSearchCollaborator resolves a list of medicine names in one request.
// The response is positionally aligned with the requested names.
type BulkSearchCollaborator interface {
	BulkSearch(ctx context.Context, names []string) ([]entities.BulkEntry, error)
}

// ContactCollaborator delivers a contact-us submission.
type ContactCollaborator interface {
	SendContactForm(ctx context.Context, form entities.ContactForm) (*entities.SubmissionResult, error)
}

// ReviewCollaborator delivers a rating/review submission.
type ReviewCollaborator interface {
	SubmitReview(ctx context.Context, form entities.ReviewForm) (*entities.SubmissionResult, error)
}

// Geocoder turns coordinates into a short human-readable locality label.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
	// CachedLabel returns the stored label when it is still fresh
	CachedLabel() (string, bool)
}

// KeyValueStore is the durable string store shared across flows. It holds
// read-mostly state: the access token and the cached location label.
type KeyValueStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
	UpdatedAt(key string) (time.Time, bool)
}

// TokenSource gates the search flow. The gate is advisory: the backend must
// still enforce authorization independently.
type TokenSource interface {
	// Token returns the current access token, or false when signed out
	Token() (string, bool)
}

// Scheduler defines the contract for background job scheduling.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HealthChecker reports gateway health.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// FormValidator validates the two small submission forms. Violations are
// collected and surfaced together, never one at a time.
type FormValidator interface {
	ValidateContactForm(form entities.ContactForm) []string
	ValidateReviewForm(form entities.ReviewForm) []string
	ValidateInput(input string) error
}

// Diversion is a full-screen loading-time toy. The orchestration core never
// depends on this interface; only the presentation layer does.
type Diversion interface {
	Reset()
	Advance() bool // false once the game is over
	Score() int
}
