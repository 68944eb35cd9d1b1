package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/fetchx/http"
)

// Config represents the top-level configuration file structure.
type Config struct {
	// Defaults are request options applied to every request in the file
	Defaults Defaults `yaml:"defaults,omitempty" json:"defaults,omitempty"`

	// Environments defines target environments with base URLs and default headers
	Environments map[string]Environment `yaml:"environments" json:"environments"`

	// Requests defines HTTP request templates
	Requests map[string]Request `yaml:"requests" json:"requests"`

	// Suites defines ordered collections of requests sharing variables
	Suites map[string]Suite `yaml:"suites,omitempty" json:"suites,omitempty"`

	// Schemas defines named JSON schemas for response validation
	Schemas map[string]any `yaml:"schemas,omitempty" json:"schemas,omitempty"`
}

// Defaults are file-wide request options. Empty fields keep the client defaults.
type Defaults struct {
	Headers      map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	ContentType  string            `yaml:"contentType,omitempty" json:"contentType,omitempty"`
	ResponseType string            `yaml:"responseType,omitempty" json:"responseType,omitempty"`
	Observe      string            `yaml:"observe,omitempty" json:"observe,omitempty"`

	// Timeout is a duration ("5s") or a number of milliseconds ("5000")
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// Success is "200" (default) or "2xx"
	Success string `yaml:"success,omitempty" json:"success,omitempty"`
}

// Environment represents an environment configuration with base URL and headers.
type Environment struct {
	// BaseURL is prepended to relative request URLs
	BaseURL string `yaml:"baseUrl" json:"baseUrl"`

	// Headers are added to all requests in this environment
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	// Vars are variables that can be used in request templates
	Vars map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
}

// Request represents an HTTP request template.
type Request struct {
	// URL is the request URL, absolute or relative to the environment base URL
	URL string `yaml:"url" json:"url"`

	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE, HEAD, OPTIONS)
	Method string `yaml:"method" json:"method"`

	// Headers are request-specific headers
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	// Params are serialized into the query string; values may be nested
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`

	// Body is the request payload, encoded according to ContentType
	Body any `yaml:"body,omitempty" json:"body,omitempty"`

	ContentType  string `yaml:"contentType,omitempty" json:"contentType,omitempty"`
	ResponseType string `yaml:"responseType,omitempty" json:"responseType,omitempty"`
	Observe      string `yaml:"observe,omitempty" json:"observe,omitempty"`
	Timeout      string `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// Extract maps variable names to JSONPath expressions evaluated on the body
	Extract map[string]string `yaml:"extract,omitempty" json:"extract,omitempty"`

	// Schema is the name of an entry in Config.Schemas or an inline schema
	Schema any `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// Suite represents a collection of requests to run in order.
type Suite struct {
	// Requests is the list of request names to run in order
	Requests []string `yaml:"requests" json:"requests"`

	// Vars are variables available to all requests in the suite
	Vars map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
}

// Call is a request template resolved against an environment and variables,
// ready to hand to http.Client.Do.
type Call struct {
	Name    string
	Method  string
	URL     string
	Body    any
	Options []http.Option
	Extract map[string]string
	Schema  any
}

// LoadConfig loads a configuration file from the given path.
// YAML and JSON files are both accepted.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Parse decodes a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BuildCall resolves the named request against env. vars hold the current
// variables; they take precedence over the environment's own.
func (c *Config) BuildCall(name string, env Environment, vars map[string]string) (*Call, error) {
	req, ok := c.Requests[name]
	if !ok {
		return nil, fmt.Errorf("request not found: %s", name)
	}

	vars = MergeEnvironments(env.Vars, vars)

	opts, err := c.Defaults.options()
	if err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}

	headers := MergeEnvironments(MergeEnvironments(c.Defaults.Headers, env.Headers), req.Headers)
	opts = append(opts, http.WithHeaders(ProcessEnvironmentInMap(headers, vars)))

	if len(req.Params) > 0 {
		params, _ := ProcessValue(req.Params, vars).(map[string]any)
		opts = append(opts, http.WithParams(params))
	}

	reqOpts, err := requestOptions(req.ContentType, req.ResponseType, req.Observe, req.Timeout)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", name, err)
	}
	opts = append(opts, reqOpts...)

	schema := req.Schema
	if ref, ok := schema.(string); ok {
		schema, ok = c.Schemas[ref]
		if !ok {
			return nil, fmt.Errorf("request %s: schema not found: %s", name, ref)
		}
	}

	return &Call{
		Name:    name,
		Method:  strings.ToUpper(req.Method),
		URL:     ResolveURL(env.BaseURL, ProcessEnvironment(req.URL, vars)),
		Body:    ProcessValue(req.Body, vars),
		Options: opts,
		Extract: req.Extract,
		Schema:  schema,
	}, nil
}

// SuccessPolicy returns the status policy selected by Defaults.Success.
func (d Defaults) SuccessPolicy() (http.SuccessPolicy, error) {
	switch strings.ToLower(d.Success) {
	case "", "200":
		return http.StatusOKOnly, nil
	case "2xx":
		return http.Status2xx, nil
	default:
		return nil, fmt.Errorf("invalid success policy: %s", d.Success)
	}
}

func (d Defaults) options() ([]http.Option, error) {
	return requestOptions(d.ContentType, d.ResponseType, d.Observe, d.Timeout)
}

func requestOptions(contentType, responseType, observe, timeout string) ([]http.Option, error) {
	var opts []http.Option
	if contentType != "" {
		opts = append(opts, http.WithContentType(http.ContentType(contentType)))
	}
	if responseType != "" {
		opts = append(opts, http.WithResponseType(http.ResponseType(responseType)))
	}
	if observe != "" {
		opts = append(opts, http.WithObserve(http.ObserveMode(observe)))
	}
	if timeout != "" {
		d, err := ParseTimeout(timeout)
		if err != nil {
			return nil, err
		}
		opts = append(opts, http.WithTimeout(d))
	}
	return opts, nil
}

// ParseTimeout parses a duration string ("1.5s", "250ms") or a bare number
// of milliseconds ("5000").
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout: %s", s)
	}
	return d, nil
}

// ResolveURL joins a relative request URL onto baseURL. Absolute URLs and
// an empty baseURL leave rawURL untouched.
func ResolveURL(baseURL, rawURL string) string {
	if rawURL == "" {
		return baseURL
	}
	if isAbsoluteURL(rawURL) || baseURL == "" {
		return rawURL
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(rawURL, "/")
}

func isAbsoluteURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// ProcessEnvironment replaces {{name}} placeholders in input with values from env.
//
// Example:
//
//	url := config.ProcessEnvironment("{{baseUrl}}/users/{{userId}}", map[string]string{
//	    "baseUrl": "https://api.example.com",
//	    "userId":  "123",
//	})
//	// Result: "https://api.example.com/users/123"
func ProcessEnvironment(input string, env map[string]string) string {
	if !strings.Contains(input, "{{") {
		return input
	}

	result := input
	for key, value := range env {
		result = strings.ReplaceAll(result, "{{"+key+"}}", value)
	}
	return result
}

// ProcessEnvironmentInMap processes environment variables in a map of strings.
func ProcessEnvironmentInMap(input map[string]string, env map[string]string) map[string]string {
	result := make(map[string]string, len(input))
	for key, value := range input {
		result[key] = ProcessEnvironment(value, env)
	}
	return result
}

// ProcessValue substitutes variables in every string of a decoded YAML
// value. Mappings come back as map[string]any so they encode as JSON.
func ProcessValue(v any, env map[string]string) any {
	switch t := v.(type) {
	case string:
		return ProcessEnvironment(t, env)
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = ProcessValue(val, env)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = ProcessValue(val, env)
		}
		return m
	case map[string]string:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = ProcessEnvironment(val, env)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = ProcessValue(val, env)
		}
		return s
	default:
		return v
	}
}

// MergeEnvironments merges two environments, with the override taking precedence.
func MergeEnvironments(base, override map[string]string) map[string]string {
	result := make(map[string]string, len(base)+len(override))
	for key, value := range base {
		result[key] = value
	}
	for key, value := range override {
		result[key] = value
	}
	return result
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
