package domain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedQuery signals a caller-built clause or option that is structurally invalid.
	ErrMalformedQuery = errors.New("malformed query")
	// ErrConnection signals that the backend could not be reached.
	ErrConnection = errors.New("connection failure")
	// ErrScrollExpired signals an invalid or expired scroll cursor.
	ErrScrollExpired = errors.New("scroll expired")
	// ErrInvalidResponse signals a payload that could not be decoded.
	ErrInvalidResponse = errors.New("invalid response")
)

// maxErrorBody bounds how much of a response body ends up in an error string.
const maxErrorBody = 512

// ResponseError is returned for non-success HTTP statuses.
// Body is the raw, unmodified response payload.
type ResponseError struct {
	Op     string
	Status int
	Body   []byte
}

func (e *ResponseError) Error() string {
	body := e.Body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, body)
}

// NewResponseError creates a ResponseError. The body is kept as-is.
func NewResponseError(op string, status int, body []byte) error {
	return &ResponseError{Op: op, Status: status, Body: body}
}

// ConnectionError wraps a transport failure with the operation that hit it.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrConnection.Error(), e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is matches ErrConnection in addition to the wrapped cause.
func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// NewConnectionError creates a ConnectionError.
func NewConnectionError(op string, err error) error {
	return &ConnectionError{Op: op, Err: err}
}

// Malformed creates an ErrMalformedQuery with a formatted detail.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedQuery, fmt.Sprintf(format, args...))
}

// IsRetryable reports whether repeating the whole call may succeed.
// Expired scrolls must be restarted from the first page.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrScrollExpired) ||
		errors.Is(err, ErrConnection) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var re *ResponseError
	if errors.As(err, &re) {
		switch re.Status {
		case http.StatusTooManyRequests, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}
