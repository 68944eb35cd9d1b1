package output

import (
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/fetchx/http"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatText, FormatJSON, FormatYAML:
		return OutputFormat(s), nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format: %s (want text, json or yaml)", s)
	}
}

// FormatProvider is an interface for different output formatters
type FormatProvider interface {
	FormatRequest(req RequestInfo) string
	FormatResponse(resp *http.Response) string
	FormatError(err error) string
}

// RequestInfo describes an outgoing call the way it will be sent.
type RequestInfo struct {
	Method  string
	URL     string
	Headers nethttp.Header
	Body    any
}

// DescribeRequest runs the URL builder and header composer over opts so the
// request can be shown before it is sent.
func DescribeRequest(method, url string, body any, opts http.RequestOptions) RequestInfo {
	return RequestInfo{
		Method:  method,
		URL:     http.CombineQueryStrings(url, opts.Params),
		Headers: http.ComposeHeaders(opts.Headers, opts.ContentType, ""),
		Body:    body,
	}
}

// RequestData represents the structured data of an HTTP request
type RequestData struct {
	Method    string            `json:"method" yaml:"method"`
	URL       string            `json:"url" yaml:"url"`
	Headers   map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body      any               `json:"body,omitempty" yaml:"body,omitempty"`
	Timestamp string            `json:"timestamp" yaml:"timestamp"`
}

// TimingData represents detailed timing information for an HTTP request
type TimingData struct {
	DNSLookup       int64 `json:"dnsLookupMs,omitempty" yaml:"dnsLookupMs,omitempty"`
	TCPConnection   int64 `json:"tcpConnectionMs,omitempty" yaml:"tcpConnectionMs,omitempty"`
	TLSHandshake    int64 `json:"tlsHandshakeMs,omitempty" yaml:"tlsHandshakeMs,omitempty"`
	TimeToFirstByte int64 `json:"timeToFirstByteMs,omitempty" yaml:"timeToFirstByteMs,omitempty"`
	ContentTransfer int64 `json:"contentTransferMs,omitempty" yaml:"contentTransferMs,omitempty"`
	Total           int64 `json:"totalMs" yaml:"totalMs"`
}

// ResponseData represents the structured data of a normalized response.
// Metadata fields are empty when only the body was observed.
type ResponseData struct {
	Status     int               `json:"status,omitempty" yaml:"status,omitempty"`
	StatusText string            `json:"statusText,omitempty" yaml:"statusText,omitempty"`
	OK         bool              `json:"ok,omitempty" yaml:"ok,omitempty"`
	Redirected bool              `json:"redirected,omitempty" yaml:"redirected,omitempty"`
	Type       string            `json:"type,omitempty" yaml:"type,omitempty"`
	URL        string            `json:"url,omitempty" yaml:"url,omitempty"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       any               `json:"body" yaml:"body"`
	Timing     *TimingData       `json:"timing,omitempty" yaml:"timing,omitempty"`
	Timestamp  string            `json:"timestamp" yaml:"timestamp"`
}

// BlobData is how a blob body is rendered in structured output.
type BlobData struct {
	Type string `json:"type" yaml:"type"`
	Size int    `json:"size" yaml:"size"`
}

// ErrorData represents the structured data of a failed call.
type ErrorData struct {
	Kind     string        `json:"kind" yaml:"kind"`
	Message  string        `json:"message" yaml:"message"`
	Response *ResponseData `json:"response,omitempty" yaml:"response,omitempty"`
}

// NewRequestData converts req for structured output.
func NewRequestData(req RequestInfo) RequestData {
	return RequestData{
		Method:    req.Method,
		URL:       req.URL,
		Headers:   flattenHeaders(req.Headers),
		Body:      structuredBody(req.Body),
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// NewResponseData converts resp for structured output.
func NewResponseData(resp *http.Response) ResponseData {
	data := ResponseData{
		Status:     resp.Status,
		StatusText: resp.StatusText,
		OK:         resp.OK,
		Redirected: resp.Redirected,
		Type:       resp.Type,
		URL:        resp.URL,
		Headers:    flattenHeaders(resp.Headers),
		Body:       structuredBody(resp.Body),
		Timestamp:  time.Now().Format(time.RFC3339),
	}
	if resp.Status != 0 {
		data.Timing = &TimingData{
			DNSLookup:       resp.Timing.DNSLookupTime.Milliseconds(),
			TCPConnection:   resp.Timing.TCPConnectTime.Milliseconds(),
			TLSHandshake:    resp.Timing.TLSHandshakeTime.Milliseconds(),
			TimeToFirstByte: resp.Timing.TimeToFirstByte.Milliseconds(),
			ContentTransfer: resp.Timing.ContentTransferTime.Milliseconds(),
			Total:           resp.GetTotalTimeMillis(),
		}
	}
	return data
}

// NewErrorData converts err for structured output. Errors that are not an
// *http.Error are reported with kind "error".
func NewErrorData(err error) ErrorData {
	e, ok := http.AsError(err)
	if !ok {
		return ErrorData{Kind: "error", Message: err.Error()}
	}
	data := ErrorData{Kind: string(e.Kind), Message: e.Message}
	if e.Response != nil {
		resp := NewResponseData(e.Response)
		data.Response = &resp
	}
	return data
}

func flattenHeaders(h nethttp.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}

func structuredBody(body any) any {
	switch b := body.(type) {
	case http.Blob:
		return BlobData{Type: b.Type, Size: b.Size()}
	case *http.Blob:
		return BlobData{Type: b.Type, Size: b.Size()}
	case []byte:
		return string(b)
	case *http.MultipartForm:
		return multipartSummary(b)
	default:
		return body
	}
}

func multipartSummary(form *http.MultipartForm) map[string]any {
	files := make([]string, 0, len(form.Files))
	for _, f := range form.Files {
		files = append(files, f.FieldName+"="+f.FileName)
	}
	sort.Strings(files)
	return map[string]any{"fields": form.Fields, "files": files}
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Verbose bool
	Pretty  bool
}

func (f *JSONFormatter) marshal(v any) string {
	var out []byte
	var err error
	if f.Pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal output: %s"}`, err)
	}
	return string(out) + "\n"
}

// FormatRequest formats a request as JSON. Requests are only shown in verbose mode.
func (f *JSONFormatter) FormatRequest(req RequestInfo) string {
	if !f.Verbose {
		return ""
	}
	return f.marshal(map[string]RequestData{"request": NewRequestData(req)})
}

// FormatResponse formats a response as JSON
func (f *JSONFormatter) FormatResponse(resp *http.Response) string {
	return f.marshal(NewResponseData(resp))
}

// FormatError formats a failed call as JSON
func (f *JSONFormatter) FormatError(err error) string {
	return f.marshal(map[string]ErrorData{"error": NewErrorData(err)})
}

// YAMLFormatter formats output as YAML documents
type YAMLFormatter struct {
	Verbose bool
}

func (f *YAMLFormatter) marshal(v any) string {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: failed to marshal output: %s\n", err)
	}
	return "---\n" + string(out)
}

// FormatRequest formats a request as YAML. Requests are only shown in verbose mode.
func (f *YAMLFormatter) FormatRequest(req RequestInfo) string {
	if !f.Verbose {
		return ""
	}
	return f.marshal(map[string]RequestData{"request": NewRequestData(req)})
}

// FormatResponse formats a response as YAML
func (f *YAMLFormatter) FormatResponse(resp *http.Response) string {
	return f.marshal(NewResponseData(resp))
}

// FormatError formats a failed call as YAML
func (f *YAMLFormatter) FormatError(err error) string {
	return f.marshal(map[string]ErrorData{"error": NewErrorData(err)})
}

// GetFormatter returns a formatter for the specified output format
func GetFormatter(format OutputFormat, verbose bool, noColor bool) FormatProvider {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Verbose: verbose, Pretty: true}
	case FormatYAML:
		return &YAMLFormatter{Verbose: verbose}
	default:
		return NewFormatter(verbose, noColor)
	}
}
