package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "f2f-cri/pkg/domain-errors"
)

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteText writes a short plain-text body, used for the fixed acknowledgement messages.
func WriteText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// WriteError centralizes domain error translation to HTTP responses.
// Only the code and the short domain message leave the process; wrapped causes stay in logs.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteErrorStatus(w, DomainCodeToHTTPStatus(domainErr.Code), domainErr)
		return
	}

	WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// WriteErrorStatus writes a domain error with an explicit status, for endpoints whose
// status for a code differs from the default table (NotFound on session-header routes).
func WriteErrorStatus(w http.ResponseWriter, status int, domainErr *dErrors.Error) {
	response := map[string]string{
		"error": DomainCodeToHTTPCode(domainErr.Code),
	}
	if domainErr.Message != "" {
		response["error_description"] = domainErr.Message
	}
	WriteJSON(w, status, response)
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeIncompleteEvidence:
		return http.StatusBadRequest
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeUnauthorized, dErrors.CodeInvalidState, dErrors.CodeSessionExpired:
		return http.StatusUnauthorized
	case dErrors.CodeVendorUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeVendorFailure, dErrors.CodeInternal:
		return http.StatusInternalServerError
	// OAuth 2.0 error codes (RFC 6749 §5.2)
	case dErrors.CodeInvalidGrant, dErrors.CodeInvalidRequest:
		return http.StatusBadRequest
	case dErrors.CodeInvalidClient, dErrors.CodeAccessDenied:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to the error string in JSON responses.
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeBadRequest:
		return "bad_request"
	case dErrors.CodeValidation:
		return "validation_error"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeUnauthorized, dErrors.CodeInvalidState, dErrors.CodeSessionExpired:
		return "unauthorized"
	case dErrors.CodeVendorFailure, dErrors.CodeVendorUnavailable:
		return "vendor_error"
	case dErrors.CodeIncompleteEvidence:
		return "incomplete_evidence"
	case dErrors.CodeInvalidGrant:
		return "invalid_grant"
	case dErrors.CodeInvalidClient:
		return "invalid_client"
	case dErrors.CodeInvalidRequest:
		return "invalid_request"
	case dErrors.CodeAccessDenied:
		return "access_denied"
	default:
		return "internal_error"
	}
}
