// Package validation provides form and input validation for the MedLinkr
// gateway. Violations are collected and returned together so callers can
// surface every problem in one pass.
package validation

import (
	"regexp"
	"strings"

	"github.com/medlinkr/medlinkr-api/entities"
	"github.com/medlinkr/medlinkr-api/interfaces"
)

const (
	minMessageLength = 10
	maxReviewLength  = 500
)

// Requires a local part, one @, a domain and a dotted TLD
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Compile-time check to ensure FormValidatorImpl implements FormValidator
var _ interfaces.FormValidator = (*FormValidatorImpl)(nil)

// FormValidatorImpl implements the interfaces.FormValidator interface
type FormValidatorImpl struct{}

// NewFormValidator creates a new form validator
func NewFormValidator() interfaces.FormValidator {
	return &FormValidatorImpl{}
}

// ValidateContactForm checks a contact submission and returns every
// violation found, in field order. An empty slice means the form is valid.
func (v *FormValidatorImpl) ValidateContactForm(form entities.ContactForm) []string {
	var violations []string

	if strings.TrimSpace(form.Name) == "" {
		violations = append(violations, "name is required")
	}

	email := strings.TrimSpace(form.Email)
	if email == "" {
		violations = append(violations, "email is required")
	} else if !emailRegex.MatchString(email) {
		violations = append(violations, "email must look like name@example.com")
	}

	if strings.TrimSpace(form.Subject) == "" {
		violations = append(violations, "subject is required")
	}

	message := strings.TrimSpace(form.Message)
	if message == "" {
		violations = append(violations, "message is required")
	} else if len([]rune(message)) < minMessageLength {
		violations = append(violations, "message must be at least 10 characters long")
	}

	return violations
}

// ValidateReviewForm checks a review submission. A zero rating means the
// user never picked one; it is rejected here so no request is sent for it.
func (v *FormValidatorImpl) ValidateReviewForm(form entities.ReviewForm) []string {
	var violations []string

	if form.Rating < 1 || form.Rating > 5 {
		violations = append(violations, "rating must be between 1 and 5 stars")
	}

	if len([]rune(form.ReviewText)) > maxReviewLength {
		violations = append(violations, "review text must be at most 500 characters long")
	}

	return violations
}
