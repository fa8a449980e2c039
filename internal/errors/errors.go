package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Identity errors
	ErrUserNotFound = errors.New("user not found")

	// Authorization flow errors
	ErrStateMismatch   = errors.New("state mismatch")
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidToken    = errors.New("invalid token")

	// Upstream provider errors
	ErrUpstreamUnauthorized     = errors.New("upstream client unknown or unauthorized")
	ErrUpstreamFailure          = errors.New("upstream failure")
	ErrMalformedUpstreamPayload = errors.New("malformed upstream payload")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
)

// UpstreamError carries the HTTP status of a failed provider call. It unwraps to
// ErrUpstreamUnauthorized for 403 responses and ErrUpstreamFailure otherwise.
type UpstreamError struct {
	Endpoint   string
	StatusCode int // 0 when the request never got a response
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s: %v", e.Endpoint, e.kind(), e.Err)
	}
	return fmt.Sprintf("%s: %s: status %d", e.Endpoint, e.kind(), e.StatusCode)
}

func (e *UpstreamError) Unwrap() []error {
	errs := []error{e.kind()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (e *UpstreamError) kind() error {
	if e.StatusCode == http.StatusForbidden {
		return ErrUpstreamUnauthorized
	}
	return ErrUpstreamFailure
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Malformed marks err as a payload shape problem.
func Malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedUpstreamPayload, fmt.Sprintf(format, args...))
}
