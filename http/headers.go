package http

import (
	"net/http"
	"sort"
)

// MIME types sent for each ContentType.
const (
	MIMEText       = "text/plain"
	MIMEJSON       = "application/json"
	MIMEMultipart  = "multipart/form-data"
	MIMEURLEncoded = "application/x-www-form-urlencoded"
)

// MIMEType returns the Content-Type header value for ct, or "" when ct is unknown.
func MIMEType(ct ContentType) string {
	switch ct {
	case ContentTypeText:
		return MIMEText
	case ContentTypeJSON:
		return MIMEJSON
	case ContentTypeMultipart:
		return MIMEMultipart
	case ContentTypeURLEncoded:
		return MIMEURLEncoded
	default:
		return ""
	}
}

// ComposeHeaders returns a new header set holding the caller headers plus
// a Content-Type derived from ct. The derived value is set last, so it
// replaces a caller-supplied Content-Type in any letter case. A non-empty
// override (the multipart boundary form) is used instead of the default.
func ComposeHeaders(headers map[string]string, ct ContentType, override string) http.Header {
	h := make(http.Header, len(headers)+1)
	for _, k := range sortedStringKeys(headers) {
		h.Set(k, headers[k])
	}

	value := override
	if value == "" {
		value = MIMEType(ct)
	}
	if value != "" {
		h.Set("Content-Type", value)
	}

	return h
}

func sortedStringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
