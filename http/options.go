package http

import (
	"fmt"
	"time"
)

// ObserveMode selects what a successful call hands back to the caller.
type ObserveMode string

const (
	// ObserveBody returns only the parsed body.
	ObserveBody ObserveMode = "body"
	// ObserveResponse returns the response metadata together with the parsed body.
	ObserveResponse ObserveMode = "response"
)

// ContentType selects how an outgoing request body is encoded.
type ContentType string

const (
	ContentTypeJSON       ContentType = "json"
	ContentTypeText       ContentType = "text"
	ContentTypeMultipart  ContentType = "multipart"
	ContentTypeURLEncoded ContentType = "urlencoded"
)

// ResponseType selects how an incoming response body is decoded.
type ResponseType string

const (
	ResponseTypeJSON ResponseType = "json"
	ResponseTypeText ResponseType = "text"
	ResponseTypeBlob ResponseType = "blob"
)

// DefaultTimeout is the timeout applied when a call does not set one.
const DefaultTimeout = 30 * time.Second

// RequestOptions is the complete per-call configuration.
// A value is rebuilt for every call by MergeOptions and is never shared.
type RequestOptions struct {
	// Headers are sent with the request. Content-Type is always derived
	// from ContentType and overrides any caller value.
	Headers map[string]string

	// Params are serialized into the query string. Values may be nested
	// maps and slices.
	Params map[string]any

	// Observe selects body-only or full-response results.
	Observe ObserveMode

	// ContentType selects the body encoding.
	ContentType ContentType

	// ResponseType selects the body decoding.
	ResponseType ResponseType

	// Timeout bounds the round trip. Zero or negative times out immediately.
	Timeout time.Duration
}

// Option configures a RequestOptions value.
type Option func(*RequestOptions)

// DefaultRequestOptions returns the documented defaults.
func DefaultRequestOptions() RequestOptions {
	return RequestOptions{
		Headers:      map[string]string{},
		Params:       map[string]any{},
		Observe:      ObserveBody,
		ContentType:  ContentTypeJSON,
		ResponseType: ResponseTypeJSON,
		Timeout:      DefaultTimeout,
	}
}

// MergeOptions applies opts on top of the defaults in order.
// The merge is shallow: WithHeaders and WithParams replace the whole map.
//
// Example:
//
//	opts := http.MergeOptions(
//	    http.WithTimeout(5*time.Second),
//	    http.WithResponseType(http.ResponseTypeText),
//	)
func MergeOptions(opts ...Option) RequestOptions {
	o := DefaultRequestOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Validate reports an error for any enumerated field holding an unknown value.
func (o RequestOptions) Validate() error {
	switch o.ContentType {
	case ContentTypeJSON, ContentTypeText, ContentTypeMultipart, ContentTypeURLEncoded:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownContentType, o.ContentType)
	}

	switch o.ResponseType {
	case ResponseTypeJSON, ResponseTypeText, ResponseTypeBlob:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownResponseType, o.ResponseType)
	}

	switch o.Observe {
	case ObserveBody, ObserveResponse:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownObserve, o.Observe)
	}

	return nil
}

// WithHeaders replaces the request headers.
func WithHeaders(headers map[string]string) Option {
	return func(o *RequestOptions) {
		o.Headers = headers
	}
}

// WithHeader adds a single header without touching the others.
// The headers map is copied so a map passed to WithHeaders is never mutated.
func WithHeader(key, value string) Option {
	return func(o *RequestOptions) {
		headers := make(map[string]string, len(o.Headers)+1)
		for k, v := range o.Headers {
			headers[k] = v
		}
		headers[key] = value
		o.Headers = headers
	}
}

// WithParams replaces the query parameters.
func WithParams(params map[string]any) Option {
	return func(o *RequestOptions) {
		o.Params = params
	}
}

// WithParam adds a single query parameter without touching the others.
func WithParam(key string, value any) Option {
	return func(o *RequestOptions) {
		params := make(map[string]any, len(o.Params)+1)
		for k, v := range o.Params {
			params[k] = v
		}
		params[key] = value
		o.Params = params
	}
}

// WithObserve sets the observe mode.
func WithObserve(mode ObserveMode) Option {
	return func(o *RequestOptions) {
		o.Observe = mode
	}
}

// WithContentType sets the request body encoding.
func WithContentType(ct ContentType) Option {
	return func(o *RequestOptions) {
		o.ContentType = ct
	}
}

// WithResponseType sets the response body decoding.
func WithResponseType(rt ResponseType) Option {
	return func(o *RequestOptions) {
		o.ResponseType = rt
	}
}

// WithTimeout sets the timeout for the call.
func WithTimeout(timeout time.Duration) Option {
	return func(o *RequestOptions) {
		o.Timeout = timeout
	}
}

// WithTimeoutMillis sets the timeout in milliseconds.
func WithTimeoutMillis(ms int64) Option {
	return WithTimeout(time.Duration(ms) * time.Millisecond)
}

