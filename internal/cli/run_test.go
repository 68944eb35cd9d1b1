package cli

import (
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runConfigTemplate = `
defaults:
  timeout: 2s
  headers:
    Accept: application/json
environments:
  test:
    baseUrl: BASE_URL
    variables:
      user: ann
requests:
  login:
    method: POST
    url: /login
    body:
      user: "{{user}}"
    extract:
      token: $.token
  profile:
    method: GET
    url: /profile
    headers:
      Authorization: Bearer {{token}}
    params:
      fields: [name, email]
    schema: profile
  created:
    method: POST
    url: /created
  broken:
    method: GET
    url: /profile
    schema:
      type: object
      required: [missing]
suites:
  flow:
    requests: [login, profile]
  failing:
    requests: [created, profile]
schemas:
  profile:
    type: object
    required: [name]
`

type recordedCall struct {
	method, path, auth, query, body string
}

func runServer(t *testing.T) (*httptest.Server, func() []recordedCall) {
	t.Helper()
	var mu sync.Mutex
	var calls []recordedCall

	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, _ := io.ReadAll(r.Body)

		mu.Lock()
		calls = append(calls, recordedCall{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			query:  r.URL.RawQuery,
			body:   string(body),
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/login":
			json.NewEncoder(w).Encode(map[string]any{"token": "tok-123"})
		case "/profile":
			json.NewEncoder(w).Encode(map[string]any{"name": "Ann", "email": "ann@example.com"})
		case "/created":
			w.WriteHeader(nethttp.StatusCreated)
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(nethttp.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	return server, func() []recordedCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedCall(nil), calls...)
	}
}

func writeRunConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fetchx.yaml")
	content := strings.Replace(runConfigTemplate, "BASE_URL", baseURL, 1)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCmd_Suite(t *testing.T) {
	server, calls := runServer(t)
	cfg := writeRunConfig(t, server.URL)

	stdout, _, err := executeCommand("run", "-c", cfg, "-e", "test", "-s", "flow", "-v", "--no-color")
	require.NoError(t, err)

	recorded := calls()
	require.Len(t, recorded, 2)

	assert.Equal(t, "POST", recorded[0].method)
	assert.JSONEq(t, `{"user":"ann"}`, recorded[0].body)

	assert.Equal(t, "/profile", recorded[1].path)
	assert.Equal(t, "Bearer tok-123", recorded[1].auth)
	assert.Equal(t, "fields%5B0%5D=name&fields%5B1%5D=email", recorded[1].query)

	assert.Contains(t, stdout, "=== Executing request: login ===")
	assert.Contains(t, stdout, "Extracted variable token = tok-123")
	assert.Contains(t, stdout, "✓ Schema validation passed")
}

func TestRunCmd_SingleRequest(t *testing.T) {
	server, calls := runServer(t)
	cfg := writeRunConfig(t, server.URL)

	stdout, _, err := executeCommand("run", "-c", cfg, "-e", "test", "-r", "profile", "-o", "json")
	require.NoError(t, err)

	require.Len(t, calls(), 1)
	assert.Equal(t, "Bearer {{token}}", calls()[0].auth, "unknown variables are left in place")
	assert.Equal(t, "Ann", decodeBody(t, stdout)["name"])
}

func TestRunCmd_SuccessPolicy(t *testing.T) {
	server, _ := runServer(t)

	cfg := writeRunConfig(t, server.URL)
	_, _, err := executeCommand("run", "-c", cfg, "-e", "test", "-r", "created")
	assert.Error(t, err, "201 fails the default policy")

	_, _, err = executeCommand("run", "-c", cfg, "-e", "test", "-r", "created", "--2xx")
	assert.NoError(t, err)

	cfg2xx := writeRunConfig(t, server.URL)
	content, err := os.ReadFile(cfg2xx)
	require.NoError(t, err)
	content = []byte(strings.Replace(string(content), "defaults:\n", "defaults:\n  success: 2xx\n", 1))
	require.NoError(t, os.WriteFile(cfg2xx, content, 0o644))

	_, _, err = executeCommand("run", "-c", cfg2xx, "-e", "test", "-r", "created")
	assert.NoError(t, err)
}

func TestRunCmd_SchemaFailure(t *testing.T) {
	server, _ := runServer(t)
	cfg := writeRunConfig(t, server.URL)

	stdout, _, err := executeCommand("run", "-c", cfg, "-e", "test", "-r", "broken", "--no-color")
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ Schema validation failed")
}

func TestRunCmd_SuiteStopsOnFailure(t *testing.T) {
	server, calls := runServer(t)
	cfg := writeRunConfig(t, server.URL)

	_, _, err := executeCommand("run", "-c", cfg, "-e", "test", "-s", "failing")
	require.Error(t, err)
	assert.Len(t, calls(), 1)
}

func TestRunCmd_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environments:
  test: {}
requests:
  ping:
    method: FETCH
`), 0o644))

	_, stderr, err := executeCommand("run", "-c", path, "-e", "test", "-r", "ping")
	require.Error(t, err)
	assert.Contains(t, stderr, "Configuration validation errors:")
	assert.Contains(t, stderr, "environments.test.baseUrl: baseUrl is required")
	assert.Contains(t, stderr, "requests.ping.method: invalid method: FETCH")
}

func TestRunCmd_MissingFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no config", []string{"run"}, "config file is required"},
		{"no environment", []string{"run", "-c", "x.yaml"}, "environment is required"},
		{"no target", []string{"run", "-c", "x.yaml", "-e", "dev"}, "either --request or --suite"},
		{"both targets", []string{"run", "-c", "x.yaml", "-e", "dev", "-r", "a", "-s", "b"}, "only one of"},
		{"missing file", []string{"run", "-c", "missing.yaml", "-e", "dev", "-r", "a"}, "config file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestRunCmd_UnknownTargets(t *testing.T) {
	server, _ := runServer(t)
	cfg := writeRunConfig(t, server.URL)

	_, _, err := executeCommand("run", "-c", cfg, "-e", "prod", "-r", "login")
	assert.ErrorContains(t, err, "environment not found: prod")

	_, _, err = executeCommand("run", "-c", cfg, "-e", "test", "-r", "logout")
	assert.ErrorContains(t, err, "request not found: logout")

	_, _, err = executeCommand("run", "-c", cfg, "-e", "test", "-s", "nightly")
	assert.ErrorContains(t, err, "suite not found: nightly")
}
