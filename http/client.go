package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Transport performs a single round trip. *http.Client satisfies it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues calls through a Transport and normalizes their outcome.
// Client is safe for concurrent use by multiple goroutines; it holds no
// per-call state.
type Client struct {
	transport Transport
	logger    zerolog.Logger
	success   SuccessPolicy
	defaults  []Option
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// NewClient creates a new client with the given options.
//
// Example:
//
//	client := http.NewClient(
//	    http.WithLogger(log),
//	    http.WithDefaultOptions(http.WithTimeout(10*time.Second)),
//	)
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		transport: &http.Client{},
		logger:    zerolog.Nop(),
		success:   StatusOKOnly,
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// WithTransport sets the transport used for round trips.
func WithTransport(t Transport) ClientOption {
	return func(c *Client) {
		c.transport = t
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSuccessPolicy sets which statuses resolve successfully.
// The default is StatusOKOnly.
func WithSuccessPolicy(policy SuccessPolicy) ClientOption {
	return func(c *Client) {
		if policy != nil {
			c.success = policy
		}
	}
}

// WithDefaultOptions sets request options applied before the per-call ones.
func WithDefaultOptions(opts ...Option) ClientOption {
	return func(c *Client) {
		c.defaults = append(c.defaults, opts...)
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
// WARNING: This should only be used for testing purposes.
func WithInsecureSkipVerify() ClientOption {
	return func(c *Client) {
		c.transport = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}
}

// Get issues a body-less GET.
func (c *Client) Get(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodGet, url, nil, opts...)
}

// Delete issues a body-less DELETE.
func (c *Client) Delete(ctx context.Context, url string, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, url, nil, opts...)
}

// Post issues a POST carrying body.
func (c *Client) Post(ctx context.Context, url string, body any, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodPost, url, body, opts...)
}

// Put issues a PUT carrying body.
func (c *Client) Put(ctx context.Context, url string, body any, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodPut, url, body, opts...)
}

// Patch issues a PATCH carrying body.
func (c *Client) Patch(ctx context.Context, url string, body any, opts ...Option) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, url, body, opts...)
}

// roundTrip is what the transport goroutine hands back to Do.
type roundTrip struct {
	resp *http.Response
	raw  []byte
	err  error
}

// Do runs the whole pipeline for one call.
//
// Option validation errors, ErrInvalidBody and URL errors are returned as
// is before anything is sent. Every other failure is an *Error:
// KindTimeout when the timer wins the race, KindHTTPErrorResponse when the
// status fails the success policy, KindNetworkError otherwise. A payload
// that cannot be encoded (a JSON marshal failure, say) is a network error
// and never reaches the transport.
//
// Example:
//
//	resp, err := client.Post(ctx, "https://api.example.com/users", user,
//	    http.WithObserve(http.ObserveResponse))
//	if e, ok := http.AsError(err); ok && e.Kind == http.KindHTTPErrorResponse {
//	    fmt.Println(e.Status(), e.Body())
//	}
func (c *Client) Do(ctx context.Context, method, url string, body any, opts ...Option) (*Response, error) {
	options := MergeOptions(append(append([]Option{}, c.defaults...), opts...)...)
	if err := options.Validate(); err != nil {
		return nil, err
	}

	req, err := c.buildRequest(ctx, method, url, body, options)
	if err != nil {
		return nil, err
	}

	log := c.logger.With().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Logger()
	log.Debug().Dur("timeout", options.Timeout).Msg("dispatching request")

	ctx, cancel := context.WithCancel(req.Context())
	defer cancel()

	timing := TimingInfo{StartTime: time.Now()}
	req = req.WithContext(httptrace.WithClientTrace(ctx, newTimingTrace(&timing)))

	done := make(chan roundTrip, 1)
	go func() {
		done <- c.send(req, &timing)
	}()

	if options.Timeout <= 0 {
		log.Warn().Msg("request timed out")
		return nil, newTimeoutError(options.Timeout)
	}

	timer := time.NewTimer(options.Timeout)
	defer timer.Stop()

	var rt roundTrip
	select {
	case rt = <-done:
	case <-timer.C:
		log.Warn().Dur("timeout", options.Timeout).Msg("request timed out")
		return nil, newTimeoutError(options.Timeout)
	}

	if rt.err != nil {
		log.Warn().Err(rt.err).Msg("request failed")
		return nil, newNetworkError(rt.err)
	}
	timing.TotalTime = time.Since(timing.StartTime)

	resp, err := normalize(rt.resp, rt.raw, req.URL.String(), options)
	if err != nil {
		log.Warn().Err(err).Int("status", rt.resp.StatusCode).Msg("response body could not be parsed")
		return nil, newNetworkError(err)
	}
	resp.Timing = timing

	log = log.With().Int("status", resp.Status).Dur("elapsed", timing.TotalTime).Logger()

	if !c.success(resp.Status) {
		log.Debug().Msg("request rejected with http error")
		return nil, newHTTPError(resp)
	}

	log.Debug().Msg("request succeeded")
	if options.Observe == ObserveBody {
		return resp.bodyOnly(), nil
	}
	return resp, nil
}

// buildRequest runs the URL builder, body encoder and header composer.
func (c *Client) buildRequest(ctx context.Context, method, url string, body any, options RequestOptions) (*http.Request, error) {
	reader, contentType, err := EncodeBody(options.ContentType, body)
	if err != nil {
		if errors.Is(err, ErrInvalidBody) || errors.Is(err, ErrUnknownContentType) {
			return nil, err
		}
		c.logger.Warn().Err(err).Str("method", method).Str("url", url).Msg("request body could not be encoded")
		return nil, newNetworkError(err)
	}

	target := CombineQueryStrings(url, options.Params)
	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), target, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header = ComposeHeaders(options.Headers, options.ContentType, contentType)

	return req, nil
}

// send performs the round trip and materializes the body.
func (c *Client) send(req *http.Request, timing *TimingInfo) roundTrip {
	resp, err := c.transport.Do(req)
	if err != nil {
		return roundTrip{err: err}
	}
	defer resp.Body.Close()

	transferStart := time.Now()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return roundTrip{err: fmt.Errorf("reading response body: %w", err)}
	}
	timing.ContentTransferTime = time.Since(transferStart)

	return roundTrip{resp: resp, raw: raw}
}

// newTimingTrace records connection phases into timing.
func newTimingTrace(timing *TimingInfo) *httptrace.ClientTrace {
	var dnsStart, connectStart, tlsHandshakeStart time.Time
	var dnsDone, connectDone bool
	lastPhaseEnd := timing.StartTime

	return &httptrace.ClientTrace{
		DNSStart: func(info httptrace.DNSStartInfo) {
			dnsStart = time.Now()
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			lastPhaseEnd = time.Now()
			timing.DNSLookupTime = lastPhaseEnd.Sub(dnsStart)
			dnsDone = true
		},
		ConnectStart: func(network, addr string) {
			if dnsDone || connectStart.IsZero() {
				connectStart = time.Now()
			}
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil {
				lastPhaseEnd = time.Now()
				timing.TCPConnectTime = lastPhaseEnd.Sub(connectStart)
				connectDone = true
			}
		},
		TLSHandshakeStart: func() {
			if connectDone {
				tlsHandshakeStart = time.Now()
			}
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err == nil {
				lastPhaseEnd = time.Now()
				timing.TLSHandshakeTime = lastPhaseEnd.Sub(tlsHandshakeStart)
			}
		},
		GotFirstResponseByte: func() {
			timing.TimeToFirstByte = time.Since(lastPhaseEnd)
		},
	}
}
