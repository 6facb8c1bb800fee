// Package cerr categorizes errors which cross component boundaries.
// Each error carries a Kind, so callers can decide about recovery
// (e.g., a validation failure is rejected locally while a hardware
// failure aborts the current processing cycle) without depending on
// the adapter which produced the error.
package cerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error.
type Kind int

const (
	KindUnknown Kind = iota

	KindValidation // malformed input, rejected locally
	KindDuplicate  // an active session already exists
	KindNotFound   // no matching ledger record
	KindHardware   // serial write/read failure
	KindStorage    // ledger transaction failure
	KindTimeout    // a bounded handshake exceeded its deadline
)

// String returns the Kind name for logs and error messages.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicate:
		return "duplicate"
	case KindNotFound:
		return "not-found"
	case KindHardware:
		return "hardware"
	case KindStorage:
		return "storage"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

type Error struct {
	Err  error
	Kind Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Err.Error())
}

// HTTPStatusCode maps the error Kind to an HTTP status code, as
// required by the read-only reporting API.
func (e *Error) HTTPStatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindDuplicate:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func Validation(err error) *Error {
	return &Error{Err: err, Kind: KindValidation}
}

func Duplicate(err error) *Error {
	return &Error{Err: err, Kind: KindDuplicate}
}

func NotFound(err error) *Error {
	return &Error{Err: err, Kind: KindNotFound}
}

func Hardware(err error) *Error {
	return &Error{Err: err, Kind: KindHardware}
}

func Storage(err error) *Error {
	return &Error{Err: err, Kind: KindStorage}
}

func Timeout(err error) *Error {
	return &Error{Err: err, Kind: KindTimeout}
}

// IsKind reports whether any error in the chain of err is an *Error
// tagged with the k kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
