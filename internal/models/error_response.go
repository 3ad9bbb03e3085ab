package models

import "net/http"

type ErrorKind string // Stable machine-readable error category

const (
	KindValidation      ErrorKind = "validation"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindAuthorization   ErrorKind = "authorization"
	KindNotFound        ErrorKind = "not_found"
	KindConflict        ErrorKind = "conflict"
	KindQuotaExceeded   ErrorKind = "quota_exceeded"
	KindInternal        ErrorKind = "internal"
)

// ErrorResponse describes an error with an HTTP status, a stable kind and a
// human-readable message.
type ErrorResponse struct {
	StatusCode int       `json:"-"`
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"reason"`
}

// NewErrorResponse creates a new error with a status code, kind and message.
func NewErrorResponse(statusCode int, kind ErrorKind, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Kind:       kind,
		Message:    message,
	}
}

// NewValidationError reports malformed or out-of-range input.
func NewValidationError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusBadRequest, KindValidation, message)
}

// NewUnauthenticatedError reports a missing or invalid credential.
func NewUnauthenticatedError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusUnauthorized, KindUnauthenticated, message)
}

// NewAuthorizationError reports that the principal does not own the resource.
func NewAuthorizationError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusForbidden, KindAuthorization, message)
}

// NewNotFoundError reports that the referenced record does not exist.
func NewNotFoundError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusNotFound, KindNotFound, message)
}

// NewConflictError reports a state precondition violated at execution time.
// The caller may retry after re-fetching current state.
func NewConflictError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusConflict, KindConflict, message)
}

// NewQuotaExceededError reports that the recycler's pending-bid limit is
// reached.
func NewQuotaExceededError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusTooManyRequests, KindQuotaExceeded, message)
}

// NewInternalError reports an unexpected failure handled at the request
// boundary.
func NewInternalError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusInternalServerError, KindInternal, message)
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	return e.Message
}
