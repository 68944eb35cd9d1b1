package http

import (
	"testing"
)

func TestCombineQueryStrings(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		params   map[string]any
		expected string
	}{
		{
			name:     "Empty params",
			url:      "https://example.com/users",
			params:   map[string]any{},
			expected: "https://example.com/users",
		},
		{
			name:     "Nil params",
			url:      "https://example.com/users",
			params:   nil,
			expected: "https://example.com/users",
		},
		{
			name:     "Fragment stays last",
			url:      "https://example.com/users#top",
			params:   map[string]any{"a": 1},
			expected: "https://example.com/users?a=1#top",
		},
		{
			name:     "Existing query and fragment",
			url:      "https://example.com/users?page=2#top",
			params:   map[string]any{"a": 1},
			expected: "https://example.com/users?page=2&a=1#top",
		},
		{
			name:     "Single param",
			url:      "https://example.com/users",
			params:   map[string]any{"a": 1},
			expected: "https://example.com/users?a=1",
		},
		{
			name:     "Existing query",
			url:      "https://example.com/users?page=2",
			params:   map[string]any{"a": 1},
			expected: "https://example.com/users?page=2&a=1",
		},
		{
			name:     "Only empty containers",
			url:      "https://example.com/users",
			params:   map[string]any{"tags": []string{}},
			expected: "https://example.com/users",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CombineQueryStrings(tt.url, tt.params)
			if got != tt.expected {
				t.Errorf("CombineQueryStrings() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEncodeQuery(t *testing.T) {
	tests := []struct {
		name     string
		params   map[string]any
		expected string
	}{
		{
			name:     "Sorted keys",
			params:   map[string]any{"b": 2, "a": 1},
			expected: "a=1&b=2",
		},
		{
			name:     "Space and reserved characters",
			params:   map[string]any{"q": "hello world&more=yes"},
			expected: "q=hello%20world%26more%3Dyes",
		},
		{
			name:     "Nested map",
			params:   map[string]any{"filter": map[string]any{"status": "active", "age": 30}},
			expected: "filter%5Bage%5D=30&filter%5Bstatus%5D=active",
		},
		{
			name:     "Slice uses indices",
			params:   map[string]any{"ids": []int{4, 5}},
			expected: "ids%5B0%5D=4&ids%5B1%5D=5",
		},
		{
			name: "Slice of maps",
			params: map[string]any{"sort": []any{
				map[string]any{"field": "name"},
			}},
			expected: "sort%5B0%5D%5Bfield%5D=name",
		},
		{
			name:     "Nil value",
			params:   map[string]any{"cursor": nil},
			expected: "cursor=",
		},
		{
			name:     "Booleans and floats",
			params:   map[string]any{"enabled": true, "ratio": 0.5},
			expected: "enabled=true&ratio=0.5",
		},
		{
			name:     "Empty nested containers are skipped",
			params:   map[string]any{"a": 1, "empty": map[string]any{}, "none": []string{}},
			expected: "a=1",
		},
		{
			name:     "Typed string map",
			params:   map[string]any{"labels": map[string]string{"env": "prod"}},
			expected: "labels%5Benv%5D=prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeQuery(tt.params)
			if got != tt.expected {
				t.Errorf("EncodeQuery() = %v, want %v", got, tt.expected)
			}
		})
	}
}
