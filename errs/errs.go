// Package errs defines the structured error kinds surfaced by the
// orchestration flows. Every collaborator failure is converted into one of
// these kinds at the point of invocation so callers only ever see a stable,
// human-readable taxonomy.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies a class of flow failure.
type Kind string

const (
	KindInvalidFileType        Kind = "INVALID_FILE_TYPE"        // non-image file selected
	KindExtractionEmpty        Kind = "EXTRACTION_EMPTY"         // upload ok, no usable names
	KindUploadTransportError   Kind = "UPLOAD_TRANSPORT_ERROR"   // upload network / non-2xx
	KindBulkSearchError        Kind = "BULK_SEARCH_ERROR"        // bulk lookup network / non-2xx
	KindSearchRequestError     Kind = "SEARCH_REQUEST_ERROR"     // free-text search network / non-2xx
	KindAuthenticationRequired Kind = "AUTHENTICATION_REQUIRED"  // client-side sign-in gate
	KindValidationFailed       Kind = "VALIDATION_FAILED"        // one or more form violations
	KindInvalidState           Kind = "INVALID_STATE"            // operation not valid in current session state
	KindResultMismatch         Kind = "RESULT_MISMATCH"          // bulk response length does not match request
	KindNotFound               Kind = "NOT_FOUND"                // unknown session
)

// FlowError carries a kind, a message suited for direct display, and an
// optional wrapped cause.
type FlowError struct {
	Kind    Kind
	Message string
	Details []string // one entry per violation for KindValidationFailed
	cause   error
}

// Error implements the error interface.
func (e *FlowError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As chains.
func (e *FlowError) Unwrap() error {
	return e.cause
}

// New creates a FlowError with the given kind and display message.
func New(kind Kind, message string) *FlowError {
	return &FlowError{Kind: kind, Message: message}
}

// Wrap creates a FlowError that keeps the underlying cause.
func Wrap(kind Kind, message string, cause error) *FlowError {
	return &FlowError{Kind: kind, Message: message, cause: cause}
}

// Validation creates a KindValidationFailed error carrying every collected
// violation. The violations are surfaced together, never one at a time.
func Validation(violations []string) *FlowError {
	return &FlowError{
		Kind:    KindValidationFailed,
		Message: fmt.Sprintf("%d validation error(s)", len(violations)),
		Details: violations,
	}
}

// KindOf extracts the kind from err, or "" when err is not a FlowError.
func KindOf(err error) Kind {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err is a FlowError of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
