// Package apperr defines the typed errors returned by domain services. The
// HTTP layer maps each Kind to a status code; callers branch on Kind, never on
// message text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the error category.
type Kind int

const (
	// KindUnknown is reported for errors that carry no *Error.
	KindUnknown Kind = iota
	// KindValidation means the input was malformed. Nothing was touched.
	KindValidation
	// KindNotFound means the record is absent in the caller's tenant.
	KindNotFound
	// KindForbidden means the caller may not act on the record.
	KindForbidden
	// KindStateConflict means a precondition failed under lock
	// (already claimed, wrong status, terminal record).
	KindStateConflict
	// KindPolicy means a business rule rejected the request.
	KindPolicy
	// KindInfrastructure means storage or transport failed and the
	// transaction was rolled back.
	KindInfrastructure
)

var kindNames = map[Kind]string{
	KindUnknown:        "unknown",
	KindValidation:     "validation",
	KindNotFound:       "not_found",
	KindForbidden:      "forbidden",
	KindStateConflict:  "state_conflict",
	KindPolicy:         "policy",
	KindInfrastructure: "infrastructure",
}

// String returns a stable label, used for metrics and logs.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a domain error with a Kind for HTTP mapping.
type Error struct {
	Kind    Kind
	Message string
	Op      string // operation that failed (optional)
	Err     error  // cause (optional)
	Details any    // extra response payload (optional)
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the status code for the error's kind.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindStateConflict:
		return http.StatusConflict
	case KindPolicy:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WithOp sets the failing operation and returns e.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error    { return New(KindValidation, message) }
func NotFound(message string) *Error      { return New(KindNotFound, message) }
func Forbidden(message string) *Error     { return New(KindForbidden, message) }
func StateConflict(message string) *Error { return New(KindStateConflict, message) }
func Policy(message string) *Error        { return New(KindPolicy, message) }

// Infrastructure wraps a storage or transport failure.
func Infrastructure(message string, err error) *Error {
	return &Error{Kind: KindInfrastructure, Message: message, Err: err}
}

// GetKind returns the Kind of the first *Error in err's chain.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
