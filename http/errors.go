package http

import (
	"errors"
	"fmt"
)

// Errors returned before any network activity. They indicate a programming
// mistake in the call and are never wrapped in an *Error envelope.
var (
	ErrInvalidBody         = errors.New("invalid request body")
	ErrUnknownContentType  = errors.New("unknown content type")
	ErrUnknownResponseType = errors.New("unknown response type")
	ErrUnknownObserve      = errors.New("unknown observe mode")

	errMultipartRequired = fmt.Errorf("%w: require a multipart-form body when content type is multipart", ErrInvalidBody)
)

// ErrorKind tags an *Error with the way the call failed.
type ErrorKind string

const (
	// KindTimeout means the timer elapsed before the round trip settled.
	KindTimeout ErrorKind = "timeout"
	// KindHTTPErrorResponse means the server answered with a non-success status.
	KindHTTPErrorResponse ErrorKind = "httpErrorResponse"
	// KindNetworkError covers transport failures and body read or parse failures.
	KindNetworkError ErrorKind = "networkError"
)

// Error is the envelope every failed call returns after the request has
// been handed to the transport. Callers branch on Kind.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Message describes the failure.
	Message string
	// Response holds the metadata and parsed error body of an HTTP error.
	// It is nil for the other kinds.
	Response *Response
	// Err is the underlying cause of a network error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Response != nil {
		return fmt.Sprintf("fetchx: %s (HTTP %d): %s", e.Kind, e.Response.Status, e.Message)
	}
	return fmt.Sprintf("fetchx: %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status of an HTTP error, or 0.
func (e *Error) Status() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.Status
}

// Body returns the parsed error body of an HTTP error, or nil.
func (e *Error) Body() any {
	if e.Response == nil {
		return nil
	}
	return e.Response.Body
}

func newTimeoutError(timeout fmt.Stringer) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: "request timed out after " + timeout.String(),
	}
}

func newHTTPError(resp *Response) *Error {
	return &Error{
		Kind:     KindHTTPErrorResponse,
		Message:  fmt.Sprintf("unexpected status %d", resp.Status),
		Response: resp,
	}
}

func newNetworkError(err error) *Error {
	return &Error{
		Kind:    KindNetworkError,
		Message: err.Error(),
		Err:     err,
	}
}

// AsError returns the envelope carried by err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsTimeout checks if an error is a timeout envelope.
func IsTimeout(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindTimeout
}

// IsHTTPError checks if an error is an HTTP error envelope.
func IsHTTPError(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindHTTPErrorResponse
}

// IsNetworkError checks if an error is a network error envelope.
func IsNetworkError(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindNetworkError
}
