// file: internals/helpers/apperror/apperror.go
package apperror

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Stable machine-readable error kinds surfaced to callers. The transport
// layer maps each kind to a conventional HTTP status; services only ever
// speak in kinds.
const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindForbidden  = "forbidden"
	KindState      = "state"
	KindConflict   = "conflict"
)

type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error { return New(KindValidation, message) }
func NotFound(message string) *Error   { return New(KindNotFound, message) }
func Forbidden(message string) *Error  { return New(KindForbidden, message) }
func State(message string) *Error      { return New(KindState, message) }
func Conflict(message string) *Error   { return New(KindConflict, message) }

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

func IsKind(err error, kind string) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to its response status. Unknown errors are
// treated as internal.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindForbidden:
		return fiber.StatusForbidden
	case KindState:
		return fiber.StatusUnprocessableEntity
	case KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
