package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// TimingInfo stores timing information for one round trip.
type TimingInfo struct {
	// StartTime is when the request was handed to the transport
	StartTime time.Time

	// DNSLookupTime is the time spent looking up the DNS address
	DNSLookupTime time.Duration

	// TCPConnectTime is the time spent establishing a TCP connection
	TCPConnectTime time.Duration

	// TLSHandshakeTime is the time spent performing the TLS handshake (for HTTPS)
	TLSHandshakeTime time.Duration

	// TimeToFirstByte is the time from the last connection phase to the first response byte
	TimeToFirstByte time.Duration

	// ContentTransferTime is the time spent reading the response body
	ContentTransferTime time.Duration

	// TotalTime is the total time from request start to body materialization
	TotalTime time.Duration
}

// Response is the normalized outcome of a round trip.
//
// When a call observes only the body, the returned Response carries Body
// alone and every metadata field is zero.
type Response struct {
	// Headers contains the response headers
	Headers http.Header

	// OK reports whether the status is in the 2xx range
	OK bool

	// Redirected reports whether the final URL differs from the requested one
	Redirected bool

	// Status is the HTTP status code (e.g., 200, 404, 500)
	Status int

	// StatusText is the status line text (e.g., "200 OK")
	StatusText string

	// Type is the response subtype tag, the negotiated protocol (e.g., "HTTP/1.1")
	Type string

	// URL is the final URL after redirects
	URL string

	// Body is the parsed body: any for JSON, string for text, Blob for blob
	Body any

	// Raw is the unparsed body
	Raw []byte

	// Timing contains detailed timing information
	Timing TimingInfo
}

// bodyOnly strips everything but the parsed body.
func (r *Response) bodyOnly() *Response {
	return &Response{Body: r.Body}
}

// Decode unmarshals the raw JSON body into v.
//
// Example:
//
//	var users []User
//	if err := resp.Decode(&users); err != nil {
//	    log.Fatal(err)
//	}
func (r *Response) Decode(v any) error {
	if r.Raw == nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, v)
	}
	return json.Unmarshal(r.Raw, v)
}

// Text returns the body as a string whatever the response type.
func (r *Response) Text() string {
	switch b := r.Body.(type) {
	case string:
		return b
	case Blob:
		return string(b.Data)
	}
	if r.Raw != nil {
		return string(r.Raw)
	}
	if r.Body == nil {
		return ""
	}
	data, err := json.Marshal(r.Body)
	if err != nil {
		return fmt.Sprint(r.Body)
	}
	return string(data)
}

// GetHeader returns the value of the specified header.
// Returns an empty string if the header is not present.
func (r *Response) GetHeader(key string) string {
	return r.Headers.Get(key)
}

// IsRedirect returns true if the response status code is in the 3xx range.
func (r *Response) IsRedirect() bool {
	return r.Status >= 300 && r.Status < 400
}

// IsClientError returns true if the response status code is in the 4xx range.
func (r *Response) IsClientError() bool {
	return r.Status >= 400 && r.Status < 500
}

// IsServerError returns true if the response status code is in the 5xx range.
func (r *Response) IsServerError() bool {
	return r.Status >= 500 && r.Status < 600
}

// GetTotalTimeMillis returns the total time in milliseconds.
func (r *Response) GetTotalTimeMillis() int64 {
	return r.Timing.TotalTime.Milliseconds()
}

// SuccessPolicy decides which status codes count as success.
type SuccessPolicy func(status int) bool

// StatusOKOnly accepts exactly 200. It is the default policy; note that
// 201, 204 and the rest of the 2xx range are reported as HTTP errors.
func StatusOKOnly(status int) bool {
	return status == http.StatusOK
}

// Status2xx accepts the whole 2xx range.
func Status2xx(status int) bool {
	return status >= 200 && status < 300
}

// parseBody decodes raw according to rt. contentType is the response
// Content-Type, recorded on blobs.
func parseBody(rt ResponseType, raw []byte, contentType string) (any, error) {
	switch rt {
	case ResponseTypeJSON:
		if len(raw) == 0 {
			return nil, errors.New("parsing json body: empty body")
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("parsing json body: %w", err)
		}
		return v, nil
	case ResponseTypeText:
		return string(raw), nil
	case ResponseTypeBlob:
		return Blob{Type: contentType, Data: raw}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownResponseType, rt)
	}
}

// normalize captures the metadata of httpResp, then attaches the parsed body.
func normalize(httpResp *http.Response, raw []byte, requestedURL string, opts RequestOptions) (*Response, error) {
	resp := &Response{
		Headers:    httpResp.Header,
		OK:         Status2xx(httpResp.StatusCode),
		Status:     httpResp.StatusCode,
		StatusText: httpResp.Status,
		Type:       httpResp.Proto,
		URL:        requestedURL,
		Raw:        raw,
	}
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		resp.URL = httpResp.Request.URL.String()
		resp.Redirected = resp.URL != requestedURL
	}

	body, err := parseBody(opts.ResponseType, raw, httpResp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	resp.Body = body

	return resp, nil
}
