package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"sort"
	"strings"

	"github.com/wesleyorama2/fetchx/http"
)

// Formatter is responsible for formatting calls and their outcome in text format
type Formatter struct {
	Verbose bool
	NoColor bool

	scheme *ColorScheme
}

// NewFormatter creates a new formatter with the given options
func NewFormatter(verbose, noColor bool) *Formatter {
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
		scheme:  SchemeFor(noColor),
	}
}

// colors returns the scheme, building it for formatters not made by NewFormatter.
func (f *Formatter) colors() *ColorScheme {
	if f.scheme == nil {
		f.scheme = SchemeFor(f.NoColor)
	}
	return f.scheme
}

// FormatRequest formats an outgoing call for display. Headers and body are
// only shown in verbose mode.
func (f *Formatter) FormatRequest(req RequestInfo) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("▶ REQUEST: %s %s\n",
		f.colors().Method.Sprint(req.Method), f.colors().URL.Sprint(req.URL)))

	if !f.Verbose {
		return buf.String()
	}

	if len(req.Headers) > 0 {
		buf.WriteString("  Headers:\n")
		f.writeHeaders(&buf, req.Headers)
	}

	if req.Body != nil {
		buf.WriteString("  Body: ")
		buf.WriteString(f.formatBody(structuredBody(req.Body)))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatResponse formats a normalized response for display. A response
// that carries only the body prints the body alone.
func (f *Formatter) FormatResponse(resp *http.Response) string {
	var buf strings.Builder

	if resp.Status == 0 {
		buf.WriteString(f.formatBody(resp.Body))
		buf.WriteString("\n")
		return buf.String()
	}

	buf.WriteString(fmt.Sprintf("◀ RESPONSE: %s (%dms)\n",
		f.colors().Status(resp).Sprint(resp.StatusText),
		resp.GetTotalTimeMillis()))

	if f.Verbose {
		if resp.Redirected {
			buf.WriteString(fmt.Sprintf("  Redirected to: %s\n", resp.URL))
		}
		buf.WriteString(fmt.Sprintf("  Protocol: %s\n", resp.Type))

		buf.WriteString("  Timing:\n")
		buf.WriteString(fmt.Sprintf("    DNS Lookup:      %dms\n", resp.Timing.DNSLookupTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    TCP Connection:  %dms\n", resp.Timing.TCPConnectTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    TLS Handshake:   %dms\n", resp.Timing.TLSHandshakeTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Time to First Byte: %dms\n", resp.Timing.TimeToFirstByte.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Content Transfer:  %dms\n", resp.Timing.ContentTransferTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Total:           %dms\n", resp.GetTotalTimeMillis()))

		buf.WriteString("  Headers:\n")
		f.writeHeaders(&buf, resp.Headers)
	}

	if resp.Body != nil {
		buf.WriteString("  Body:\n")
		buf.WriteString(f.formatBody(resp.Body))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatError formats a failed call. HTTP error responses include the
// status line and the parsed body.
func (f *Formatter) FormatError(err error) string {
	var buf strings.Builder
	icon := ErrorIcon(f.NoColor)

	e, ok := http.AsError(err)
	if !ok {
		buf.WriteString(fmt.Sprintf("%s %s\n", icon, f.colors().Error.Sprint(err.Error())))
		return buf.String()
	}

	switch e.Kind {
	case http.KindTimeout:
		buf.WriteString(fmt.Sprintf("%s TIMEOUT: %s\n", icon, e.Message))
	case http.KindHTTPErrorResponse:
		resp := e.Response
		buf.WriteString(fmt.Sprintf("%s HTTP ERROR: %s (%dms)\n", icon,
			f.colors().Status(resp).Sprint(resp.StatusText), resp.GetTotalTimeMillis()))
		if f.Verbose {
			buf.WriteString("  Headers:\n")
			f.writeHeaders(&buf, resp.Headers)
		}
		if resp.Body != nil {
			buf.WriteString("  Body:\n")
			buf.WriteString(f.formatBody(resp.Body))
			buf.WriteString("\n")
		}
	default:
		buf.WriteString(fmt.Sprintf("%s NETWORK ERROR: %s\n", icon, e.Message))
	}

	return buf.String()
}

func (f *Formatter) writeHeaders(buf *strings.Builder, headers nethttp.Header) {
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		for _, value := range headers[key] {
			buf.WriteString(fmt.Sprintf("    %s: %s\n",
				f.colors().HeaderKey.Sprint(key), f.colors().HeaderValue.Sprint(value)))
		}
	}
}

func (f *Formatter) formatBody(body any) string {
	switch b := body.(type) {
	case string:
		return formatJSONString(b)
	case http.Blob:
		return fmt.Sprintf("<%d bytes of %s>", b.Size(), blobType(b.Type))
	case BlobData:
		return fmt.Sprintf("<%d bytes of %s>", b.Size, blobType(b.Type))
	}

	data, err := json.MarshalIndent(body, "  ", "  ")
	if err != nil {
		return fmt.Sprintf("%v", body)
	}
	return "  " + string(data)
}

func blobType(t string) string {
	if t == "" {
		return "application/octet-stream"
	}
	return t
}

// formatJSONString attempts to pretty-print a JSON string
func formatJSONString(s string) string {
	var prettyJSON bytes.Buffer
	err := json.Indent(&prettyJSON, []byte(s), "  ", "  ")
	if err != nil {
		return s
	}
	return "  " + prettyJSON.String()
}
