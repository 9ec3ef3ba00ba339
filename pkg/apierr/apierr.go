// Package apierr defines the error taxonomy shared by the API handlers and the
// client: every failed operation is classified as validation, permission,
// state, not-found or conflict, and carries a stable wire code.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an API error.
type Kind string

const (
	// KindValidation means bad or missing input.
	KindValidation Kind = "validation_error"

	// KindPermission means the wrong party attempted a party-restricted action.
	KindPermission Kind = "permission_error"

	// KindState means the transition is illegal from the current status.
	KindState Kind = "state_error"

	// KindNotFound means an unknown relationship, user or certificate.
	KindNotFound Kind = "not_found"

	// KindConflict means the request collides with existing data,
	// e.g. a duplicate invitation or deleting an active relationship.
	KindConflict Kind = "conflict"

	// KindInternal covers everything the server could not classify.
	KindInternal Kind = "internal_error"
)

// Error is a classified API error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error { return New(KindValidation, format, args...) }
func Permission(format string, args ...any) *Error { return New(KindPermission, format, args...) }
func State(format string, args ...any) *Error      { return New(KindState, format, args...) }
func NotFound(format string, args ...any) *Error   { return New(KindNotFound, format, args...) }
func Conflict(format string, args ...any) *Error   { return New(KindConflict, format, args...) }

// KindOf extracts the kind from err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind to its wire status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindPermission:
		return http.StatusForbidden
	case KindState:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// KindFromStatus is the inverse of HTTPStatus, used by clients when a response
// carries no recognizable error code.
func KindFromStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusForbidden:
		return KindPermission
	case http.StatusUnprocessableEntity:
		return KindState
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	default:
		return KindInternal
	}
}
