package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/medlinkr/medlinkr-api/auth"
	"github.com/medlinkr/medlinkr-api/entities"
	"github.com/medlinkr/medlinkr-api/errs"
	"github.com/medlinkr/medlinkr-api/interfaces"
	"github.com/medlinkr/medlinkr-api/logging"
	"github.com/medlinkr/medlinkr-api/session"
	"github.com/medlinkr/medlinkr-api/validation"
)

// Handler bundles the collaborators the gateway endpoints need.
type Handler struct {
	sessions  *session.Registry
	searcher  interfaces.SearchCollaborator
	contact   interfaces.ContactCollaborator
	review    interfaces.ReviewCollaborator
	geocoder  interfaces.Geocoder
	validator interfaces.FormValidator
	tokens    *auth.TokenStore
}

// New creates a gateway handler.
func New(
	sessions *session.Registry,
	searcher interfaces.SearchCollaborator,
	contact interfaces.ContactCollaborator,
	review interfaces.ReviewCollaborator,
	geocoder interfaces.Geocoder,
	validator interfaces.FormValidator,
	tokens *auth.TokenStore,
) *Handler {
	return &Handler{
		sessions:  sessions,
		searcher:  searcher,
		contact:   contact,
		review:    review,
		geocoder:  geocoder,
		validator: validator,
		tokens:    tokens,
	}
}

// StartPrescription accepts a multipart prescription image and runs it
// through upload and extraction. The response is the session snapshot; the
// client confirms or cancels from there.
func (h *Handler) StartPrescription(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("image")
	if err != nil {
		RespondWithError(w, r, http.StatusBadRequest, errs.New(errs.KindInvalidFileType, "an image file is required in the 'image' field"))
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	s := h.sessions.Create()

	if err := s.SelectFile(r.Context(), header.Filename, mimeType, file); err != nil {
		if errs.Is(err, errs.KindInvalidFileType) {
			h.sessions.Remove(s.ID)
			RespondWithError(w, r, statusFor(err), err)
			return
		}
		// Upload and extraction failures leave a Failed session behind so
		// the client can inspect it and retry
		logging.Warn("Prescription upload failed", "session_id", s.ID, "error", err)
	}

	RespondWithJSON(w, r, http.StatusCreated, s.Snapshot())
}

// GetPrescription returns the current snapshot of an upload session.
func (h *Handler) GetPrescription(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		RespondWithError(w, r, statusFor(err), err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, s.Snapshot())
}

// ConfirmPrescription runs the bulk lookup for the extracted names.
func (h *Handler) ConfirmPrescription(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		RespondWithError(w, r, statusFor(err), err)
		return
	}

	if err := s.ConfirmExtraction(r.Context()); err != nil {
		logging.Warn("Bulk lookup failed", "session_id", s.ID, "error", err)
	}

	RespondWithJSON(w, r, http.StatusOK, s.Snapshot())
}

// CancelPrescription resets an upload session to idle.
func (h *Handler) CancelPrescription(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		RespondWithError(w, r, statusFor(err), err)
		return
	}

	s.CancelExtraction()
	RespondWithJSON(w, r, http.StatusOK, s.Snapshot())
}

type searchRequest struct {
	Query    string `json:"query"`
	Location string `json:"location"`
}

// Search resolves one free-text medicine query. A Bearer token on the
// request takes precedence over the stored one; without either the request
// is rejected before any backend traffic.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, errs.New(errs.KindValidationFailed, "request body must be JSON with a 'query' field"))
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		// Blank queries are a no-op, mirrored here as an empty response
		RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{})
		return
	}

	if err := h.validator.ValidateInput(query); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, errs.Wrap(errs.KindValidationFailed, err.Error(), err))
		return
	}

	// Accents and casing never change which medicine is meant, so the
	// backend always sees the folded form
	query = validation.NormalizeMedicineName(query)

	location := req.Location
	if location == "" {
		if cached, ok := h.geocoder.CachedLabel(); ok {
			location = cached
		}
	}

	sess := session.NewSearchSession(h.searcher, h.requestTokens(r))
	result, err := sess.Search(r.Context(), query, location)
	if err != nil {
		RespondWithError(w, r, statusFor(err), err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, result)
}

// requestTokens prefers the Authorization header over the stored token.
func (h *Handler) requestTokens(r *http.Request) interfaces.TokenSource {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && strings.TrimSpace(token) != "" {
		return staticToken(strings.TrimSpace(token))
	}
	return h.tokens
}

type staticToken string

func (t staticToken) Token() (string, bool) { return string(t), true }

// submissionResponse is the transient payload of the two form endpoints.
// Cleared reports whether the client should clear its form fields: only
// after a successful delivery, never on failure.
type submissionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Cleared bool   `json:"cleared"`
}

// ContactUs validates and delivers a contact form.
func (h *Handler) ContactUs(w http.ResponseWriter, r *http.Request) {
	var form entities.ContactForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, errs.New(errs.KindValidationFailed, "request body must be a JSON contact form"))
		return
	}

	if violations := h.validator.ValidateContactForm(form); len(violations) > 0 {
		RespondWithError(w, r, http.StatusBadRequest, errs.Validation(violations))
		return
	}

	result, err := h.contact.SendContactForm(r.Context(), form)
	if err != nil {
		logging.Warn("Contact form delivery failed", "error", err)
		RespondWithJSON(w, r, http.StatusBadGateway, submissionResponse{
			Message: "Your message could not be sent. Please try again.",
		})
		return
	}

	RespondWithJSON(w, r, http.StatusOK, submissionResponse{
		Success: result.Success,
		Message: result.Message,
		Cleared: result.Success,
	})
}

// AddReview validates and delivers a rating/review. A zero rating never
// reaches the backend.
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	var form entities.ReviewForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		RespondWithError(w, r, http.StatusBadRequest, errs.New(errs.KindValidationFailed, "request body must be a JSON review form"))
		return
	}

	if violations := h.validator.ValidateReviewForm(form); len(violations) > 0 {
		RespondWithError(w, r, http.StatusBadRequest, errs.Validation(violations))
		return
	}

	if form.Location == "" {
		if cached, ok := h.geocoder.CachedLabel(); ok {
			form.Location = cached
		}
	}

	result, err := h.review.SubmitReview(r.Context(), form)
	if err != nil {
		logging.Warn("Review delivery failed", "error", err)
		RespondWithJSON(w, r, http.StatusBadGateway, submissionResponse{
			Message: "Your review could not be submitted. Please try again.",
		})
		return
	}

	RespondWithJSON(w, r, http.StatusOK, submissionResponse{
		Success: result.Success,
		Message: result.Message,
		Cleared: result.Success,
	})
}

// Location resolves lat/lon query parameters to a locality label, serving
// the cached label while it is fresh.
func (h *Handler) Location(w http.ResponseWriter, r *http.Request) {
	if cached, ok := h.geocoder.CachedLabel(); ok {
		RespondWithJSON(w, r, http.StatusOK, map[string]string{"location": cached, "source": "cache"})
		return
	}

	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		RespondWithError(w, r, http.StatusBadRequest, errs.New(errs.KindValidationFailed, "lat and lon query parameters are required"))
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		RespondWithError(w, r, http.StatusBadRequest, errs.New(errs.KindValidationFailed, "lat and lon are out of range"))
		return
	}

	label, err := h.geocoder.ReverseGeocode(r.Context(), lat, lon)
	if err != nil {
		logging.Warn("Reverse geocode failed", "error", err)
		// The flows keep working with the generic placeholder
		RespondWithJSON(w, r, http.StatusOK, map[string]string{"location": "Your Location", "source": "fallback"})
		return
	}

	RespondWithJSON(w, r, http.StatusOK, map[string]string{"location": label, "source": "geocoder"})
}

type signInRequest struct {
	Token string `json:"token"`
}

// SignIn stores the access token that unlocks the search flow.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		RespondWithError(w, r, http.StatusBadRequest, errs.New(errs.KindValidationFailed, "a non-empty 'token' field is required"))
		return
	}

	if err := h.tokens.SignIn(req.Token); err != nil {
		RespondWithError(w, r, http.StatusInternalServerError, err)
		return
	}

	RespondWithJSON(w, r, http.StatusOK, map[string]bool{"signedIn": true})
}

// SignOut clears the stored token and the state that depends on it.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.tokens.SignOut(); err != nil {
		RespondWithError(w, r, http.StatusInternalServerError, err)
		return
	}
	RespondWithJSON(w, r, http.StatusOK, map[string]bool{"signedIn": false})
}
