package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "globaltrust/pkg/domain-errors"
)

// Retryable is implemented by errors that describe a transient failure the
// user may retry, such as an unreachable backend service.
type Retryable interface {
	Retryable() bool
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
	Retryable   bool   `json:"retryable,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Errors after WriteHeader cannot change the status code, so we ignore encoding errors.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError centralizes domain error translation to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	code, ok := dErrors.CodeOf(err)
	if !ok {
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: DomainCodeToHTTPCode(dErrors.CodeInternal),
		})
		return
	}

	resp := ErrorResponse{
		Error:       DomainCodeToHTTPCode(code),
		Description: err.Error(),
		Retryable:   IsRetryable(err),
	}
	if code == dErrors.CodeInternal {
		resp.Description = ""
	}
	WriteJSON(w, DomainCodeToHTTPStatus(code), resp)
}

// IsRetryable reports whether err is transient: a timeout, or an error in the
// chain that declares itself retryable.
func IsRetryable(err error) bool {
	if dErrors.HasCode(err, dErrors.CodeTimeout) {
		return true
	}
	var r Retryable
	return errors.As(err, &r) && r.Retryable()
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeConflict, dErrors.CodeStaleHandle:
		return http.StatusConflict
	case dErrors.CodeUnauthorized, dErrors.CodeAuthenticationFailed:
		return http.StatusUnauthorized
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeServiceProvisioning:
		return http.StatusServiceUnavailable
	case dErrors.CodeRemoteCallFailed, dErrors.CodeDecodeViolation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to HTTP error codes (for JSON response).
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeNotFound:
		return "not_found"
	case dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeConflict:
		return "conflict"
	case dErrors.CodeStaleHandle:
		return "session_changed"
	case dErrors.CodeUnauthorized:
		return "unauthorized"
	case dErrors.CodeAuthenticationFailed:
		return "authentication_failed"
	case dErrors.CodeTimeout:
		return "timeout"
	case dErrors.CodeServiceProvisioning:
		return "service_unavailable"
	case dErrors.CodeRemoteCallFailed:
		return "remote_call_failed"
	case dErrors.CodeDecodeViolation:
		return "bad_response"
	default:
		return "internal_error"
	}
}
