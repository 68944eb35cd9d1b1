package http

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// CombineQueryStrings appends the serialized params to rawURL.
// rawURL is returned unchanged when params is empty. When rawURL already
// carries a query the params are joined with '&'. A #fragment stays at the
// end of the URL.
//
// Example:
//
//	http.CombineQueryStrings("https://api.example.com/users", map[string]any{"a": 1})
//	// https://api.example.com/users?a=1
func CombineQueryStrings(rawURL string, params map[string]any) string {
	if len(params) == 0 {
		return rawURL
	}

	query := EncodeQuery(params)
	if query == "" {
		return rawURL
	}

	base, fragment, hasFragment := strings.Cut(rawURL, "#")

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	combined := base + sep + query
	if hasFragment {
		combined += "#" + fragment
	}
	return combined
}

// EncodeQuery serializes params using bracket notation for nested values.
//
// Keys are emitted in sorted order. Nested maps become a[b]=v, slices
// become a[0]=v, nil becomes an empty value and empty maps or slices are
// omitted. Keys and values are percent-encoded per RFC 3986.
func EncodeQuery(params map[string]any) string {
	var pairs []string
	for _, key := range sortedKeys(params) {
		pairs = appendQueryPairs(pairs, key, reflect.ValueOf(params[key]))
	}
	return strings.Join(pairs, "&")
}

func appendQueryPairs(pairs []string, prefix string, v reflect.Value) []string {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return append(pairs, escapeQuery(prefix)+"=")
		}
		v = v.Elem()
	}

	if !v.IsValid() {
		return append(pairs, escapeQuery(prefix)+"=")
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return append(pairs, escapeQuery(prefix)+"="+escapeQuery(fmt.Sprint(v.Interface())))
		}
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		for _, k := range keys {
			pairs = appendQueryPairs(pairs, prefix+"["+k+"]", v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key())))
		}
		return pairs

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return append(pairs, escapeQuery(prefix)+"="+escapeQuery(string(v.Bytes())))
		}
		for i := 0; i < v.Len(); i++ {
			pairs = appendQueryPairs(pairs, prefix+"["+strconv.Itoa(i)+"]", v.Index(i))
		}
		return pairs

	default:
		return append(pairs, escapeQuery(prefix)+"="+escapeQuery(scalarString(v)))
	}
}

func scalarString(v reflect.Value) string {
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	default:
		return fmt.Sprint(v.Interface())
	}
}

// escapeQuery percent-encodes s, using %20 rather than '+' for spaces.
func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
