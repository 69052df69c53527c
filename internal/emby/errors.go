package emby

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport is matched by every failure of a server round trip.
	ErrTransport = errors.New("emby: transport failure")

	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotFound       = errors.New("emby: resource not found")
	ErrUnauthorized   = errors.New("emby: unauthorized")
	ErrRejected       = errors.New("emby: request rejected (4xx)")
	ErrUpstreamError  = errors.New("emby: internal error (5xx)")
	ErrUnavailable    = errors.New("emby: host unreachable")
	ErrBadResponse    = errors.New("emby: invalid response format or malformed data")
	ErrTimeout        = errors.New("emby: request timed out")
	ErrCanceled       = errors.New("emby: request canceled")
	ErrInvalidRequest = errors.New("emby: invalid request")
)

// Error is a rich error type that wraps the sentinel errors with context.
type Error struct {
	Sentinel  error
	Operation string
	Status    int
	Body      string
	Err       error // Nested lower-level error (e.g. net.Error)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("emby: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the sentinel, ErrTransport and the nested cause.
func (e *Error) Unwrap() []error {
	errs := []error{ErrTransport}
	if e.Sentinel != nil {
		errs = append(errs, e.Sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func sentinelForStatus(status int) error {
	switch {
	case status == 401 || status == 403:
		return ErrUnauthorized
	case status == 404:
		return ErrNotFound
	case status >= 500:
		return ErrUpstreamError
	default:
		return ErrRejected
	}
}
