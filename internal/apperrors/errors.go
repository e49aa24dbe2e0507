// Package apperrors holds the failure classes a scheduling attempt reports:
// validation failures (never retried), date conflicts (re-resolvable),
// record-store I/O failures and the point-wide time-of-day warning.
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("date conflict")
	ErrUpstreamIO = errors.New("record store unavailable")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

type ValidationError struct {
	Field  string
	Reason string
}

func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ConflictError reports a day already taken by a pending pickup of the same
// container, or a forward search that found no free day.
type ConflictError struct {
	Day              time.Time
	HorizonExhausted bool
}

func (e *ConflictError) Error() string {
	if e.HorizonExhausted {
		return fmt.Sprintf("no free date within horizon after %s", e.Day.Format("2006-01-02"))
	}
	return fmt.Sprintf("date already scheduled: %s", e.Day.Format("2006-01-02"))
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// UpstreamIOError wraps a failed or timed out record-store call.
type UpstreamIOError struct {
	Op         string
	StatusCode int
	Err        error
}

// statusCoder is implemented by record-store errors carrying an HTTP-like code.
type statusCoder interface {
	StatusCode() int
}

// UpstreamIO classifies err as an I/O failure of op. Errors that already are
// UpstreamIOError are returned unchanged.
func UpstreamIO(op string, err error) error {
	if err == nil {
		return nil
	}
	var up *UpstreamIOError
	if errors.As(err, &up) {
		return err
	}
	e := &UpstreamIOError{Op: op, Err: err}
	var sc statusCoder
	if errors.As(err, &sc) {
		e.StatusCode = sc.StatusCode()
	}
	return e
}

func (e *UpstreamIOError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamIOError) Unwrap() error { return e.Err }

func (e *UpstreamIOError) Is(target error) bool { return target == ErrUpstreamIO }

// Timeout reports whether the call ran out of time.
func (e *UpstreamIOError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// Retryable reports whether repeating the call may succeed: timeouts,
// transport errors without a status, 429 and 5xx.
func (e *UpstreamIOError) Retryable() bool {
	if errors.Is(e.Err, context.Canceled) {
		return false
	}
	switch {
	case e.StatusCode == 0:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err is a retryable UpstreamIOError.
func IsRetryable(err error) bool {
	var up *UpstreamIOError
	return errors.As(err, &up) && up.Retryable()
}

// ReconciliationWarning is not an error: it tells the caller the collection
// point's time-of-day changed, which affects every container at that point.
type ReconciliationWarning struct {
	PointID   string
	Previous  string
	Requested string
	// InEffect is the value read back after the update. It can differ from
	// Requested when another attempt wrote the point concurrently.
	InEffect string
	Applied  bool
	Err      error
}

func (w ReconciliationWarning) String() string {
	if !w.Applied {
		return fmt.Sprintf("point %s time-of-day kept at %s (update to %s failed: %v)", w.PointID, w.InEffect, w.Requested, w.Err)
	}
	return fmt.Sprintf("point %s time-of-day changed %s -> %s for all containers", w.PointID, w.Previous, w.InEffect)
}

// HTTPStatus maps an error of this package to a response status.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUpstreamIO):
		var up *UpstreamIOError
		if errors.As(err, &up) && up.Timeout() {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Code is the machine-readable code used in error responses.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUpstreamIO):
		return "upstream_io_error"
	default:
		return "internal_server_error"
	}
}
