// Package handlers provides the HTTP handlers of the MedLinkr gateway: the
// prescription upload flow, free-text search, the contact and review
// submissions, sign in/out and the reverse geocode lookup.
package handlers

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/medlinkr/medlinkr-api/errs"
	"github.com/medlinkr/medlinkr-api/logging"
)

// Minimum response size to consider compression (1KB)
const compressionThreshold = 1024

// RespondWithJSON writes a JSON response, gzip-compressed when the payload
// is large enough and the client accepts it.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err, "payload_type", fmt.Sprintf("%T", payload))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))

	shouldCompress := len(data) >= compressionThreshold &&
		strings.Contains(strings.ToLower(r.Header.Get("Accept-Encoding")), "gzip")

	if shouldCompress {
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(code)
		gz := gzip.NewWriter(w)
		defer gz.Close()
		gz.Write(data)
		return
	}

	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error payload. Validation details ride
// along when the error carries them.
func RespondWithError(w http.ResponseWriter, r *http.Request, code int, err error) {
	payload := map[string]interface{}{
		"error": http.StatusText(code),
		"code":  code,
	}

	var fe *errs.FlowError
	if errors.As(err, &fe) {
		payload["kind"] = fe.Kind
		payload["message"] = fe.Message
		if len(fe.Details) > 0 {
			payload["details"] = fe.Details
		}
	} else if err != nil {
		payload["message"] = err.Error()
	}

	RespondWithJSON(w, r, code, payload)
}

// statusFor maps a flow error kind to an HTTP status code.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindInvalidFileType, errs.KindValidationFailed:
		return http.StatusBadRequest
	case errs.KindAuthenticationRequired:
		return http.StatusUnauthorized
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindInvalidState:
		return http.StatusConflict
	case errs.KindExtractionEmpty, errs.KindResultMismatch:
		return http.StatusUnprocessableEntity
	case errs.KindUploadTransportError, errs.KindBulkSearchError, errs.KindSearchRequestError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
