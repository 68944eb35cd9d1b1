// Package jsonpath pulls values out of response bodies with JSONPath-style
// expressions such as $.users[0].name.
package jsonpath

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Lookup evaluates path against body and returns the matching gjson result.
//
// body may be raw JSON ([]byte or string) or a decoded value such as the
// Body of a JSON response, which is re-encoded before the lookup.
func Lookup(body any, path string) (gjson.Result, error) {
	if path == "" {
		return gjson.Result{}, fmt.Errorf("empty JSONPath expression")
	}

	data, err := rawJSON(body)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("body is not valid JSON")
	}

	result := gjson.GetBytes(data, ToGjsonPath(path))
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("path not found: %s", path)
	}
	return result, nil
}

// Extract evaluates path against body and returns the value as a string.
// Strings come back unquoted, null as "null" and objects or arrays as JSON.
func Extract(body any, path string) (string, error) {
	result, err := Lookup(body, path)
	if err != nil {
		return "", err
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// ExtractAll evaluates every named path. Values that could be extracted are
// returned even when others fail; the error lists the failures.
func ExtractAll(body any, paths map[string]string) (map[string]string, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no JSONPath expressions provided")
	}

	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(paths))
	var failures []string
	for _, name := range names {
		value, err := Extract(body, paths[name])
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		results[name] = value
	}

	if len(failures) > 0 {
		return results, fmt.Errorf("extraction errors: %s", strings.Join(failures, "; "))
	}
	return results, nil
}

// ToGjsonPath converts a JSONPath expression to gjson syntax:
// $.users[0]['first name'] becomes users.0.first name.
// Expressions without a leading $ are assumed to be gjson already.
func ToGjsonPath(path string) string {
	if !strings.HasPrefix(path, "$") {
		return path
	}
	path = strings.TrimPrefix(path, "$")
	if path == "" {
		return "@this"
	}

	var segments []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			segments = append(segments, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '.':
			flush()
		case '[':
			flush()
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				current.WriteString(path[i+1:])
				i = len(path)
				continue
			}
			key := strings.Trim(path[i+1:i+end], `'"`)
			segments = append(segments, escapeSegment(key))
			i += end
		default:
			current.WriteByte(c)
		}
	}
	flush()

	if len(segments) == 0 {
		return "@this"
	}
	return strings.Join(segments, ".")
}

// escapeSegment escapes gjson path metacharacters inside a bracketed key.
func escapeSegment(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func rawJSON(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, fmt.Errorf("empty body")
	case []byte:
		if len(b) == 0 {
			return nil, fmt.Errorf("empty body")
		}
		return b, nil
	case string:
		if b == "" {
			return nil, fmt.Errorf("empty body")
		}
		return []byte(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encoding body: %w", err)
		}
		return data, nil
	}
}
