package cli

import (
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/fetchx/http"
	"github.com/wesleyorama2/fetchx/internal/testserver"
)

// echoServer reports back what it received as JSON.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		echo := map[string]any{
			"method":      r.Method,
			"query":       r.URL.Query(),
			"token":       r.Header.Get("X-Token"),
			"contentType": r.Header.Get("Content-Type"),
		}

		switch ct := r.Header.Get("Content-Type"); {
		case strings.HasPrefix(ct, "multipart/form-data"):
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				echo["form"] = r.MultipartForm.Value
				files := map[string]string{}
				for field, headers := range r.MultipartForm.File {
					f, _ := headers[0].Open()
					data, _ := io.ReadAll(f)
					f.Close()
					files[field] = headers[0].Filename + ":" + string(data)
				}
				echo["files"] = files
			}
		case strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
			if err := r.ParseForm(); err == nil {
				echo["form"] = r.PostForm
			}
		default:
			data, _ := io.ReadAll(r.Body)
			echo["body"] = string(data)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(echo)
	}))
	t.Cleanup(server.Close)
	return server
}

// decodeBody reads the body out of JSON formatted command output.
func decodeBody(t *testing.T, stdout string) map[string]any {
	t.Helper()
	var out struct {
		Body map[string]any `json:"body"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out), stdout)
	return out.Body
}

func TestGetCmd_QueryAndHeaders(t *testing.T) {
	server := echoServer(t)

	stdout, _, err := executeCommand("get", server.URL+"/users",
		"-q", "tag=a", "-q", "tag=b", "-q", "page=2",
		"-H", "X-Token: secret",
		"-o", "json")
	require.NoError(t, err)

	body := decodeBody(t, stdout)
	assert.Equal(t, "GET", body["method"])
	assert.Equal(t, "secret", body["token"])
	assert.Equal(t, map[string]any{
		"tag[0]": []any{"a"},
		"tag[1]": []any{"b"},
		"page":   []any{"2"},
	}, body["query"])
}

func TestRequestCmds_Methods(t *testing.T) {
	server := echoServer(t)

	for _, method := range []string{"get", "delete", "post", "put", "patch"} {
		t.Run(method, func(t *testing.T) {
			stdout, _, err := executeCommand(method, server.URL, "-o", "json")
			require.NoError(t, err)
			assert.Equal(t, strings.ToUpper(method), decodeBody(t, stdout)["method"])
		})
	}
}

func TestPatchCmd_JSONBody(t *testing.T) {
	server := echoServer(t)

	stdout, _, err := executeCommand("patch", server.URL, "-j", `{"name":"Ann","age":3}`, "-o", "json")
	require.NoError(t, err)

	body := decodeBody(t, stdout)
	assert.Equal(t, "PATCH", body["method"])
	assert.Equal(t, "application/json", body["contentType"])
	assert.JSONEq(t, `{"name":"Ann","age":3}`, body["body"].(string))
}

func TestPostCmd_RawData(t *testing.T) {
	server := echoServer(t)

	stdout, _, err := executeCommand("post", server.URL, "-d", "hello", "--content-type", "text", "-o", "json")
	require.NoError(t, err)

	body := decodeBody(t, stdout)
	assert.Equal(t, "text/plain", body["contentType"])
	assert.Equal(t, "hello", body["body"])
}

func TestPostCmd_URLEncodedForm(t *testing.T) {
	server := echoServer(t)

	stdout, _, err := executeCommand("post", server.URL, "-F", "name=Ann Lee", "-F", "role=admin", "-o", "json")
	require.NoError(t, err)

	body := decodeBody(t, stdout)
	assert.Equal(t, "application/x-www-form-urlencoded", body["contentType"])
	assert.Equal(t, map[string]any{"name": []any{"Ann Lee"}, "role": []any{"admin"}}, body["form"])
}

func TestPutCmd_MultipartUpload(t *testing.T) {
	server := echoServer(t)

	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("file contents"), 0o644))

	stdout, _, err := executeCommand("put", server.URL, "-F", "title=Notes", "--file", "upload="+path, "-o", "json")
	require.NoError(t, err)

	body := decodeBody(t, stdout)
	assert.True(t, strings.HasPrefix(body["contentType"].(string), "multipart/form-data; boundary="))
	assert.Equal(t, map[string]any{"title": []any{"Notes"}}, body["form"])
	assert.Equal(t, map[string]any{"upload": "note.txt:file contents"}, body["files"])
}

func TestPostCmd_ConflictingBodies(t *testing.T) {
	_, _, err := executeCommand("post", "http://127.0.0.1:1", "-d", "a", "-j", "{}")
	assert.ErrorContains(t, err, "use only one of")

	_, _, err = executeCommand("post", "http://127.0.0.1:1", "-j", "{broken")
	assert.ErrorContains(t, err, "invalid --json body")
}

func TestGetCmd_InvalidFlags(t *testing.T) {
	_, _, err := executeCommand("get", "http://127.0.0.1:1", "-H", "no-colon")
	assert.ErrorContains(t, err, "invalid header")

	_, _, err = executeCommand("get", "http://127.0.0.1:1", "-q", "novalue")
	assert.ErrorContains(t, err, "invalid query parameter")

	_, _, err = executeCommand("get", "http://127.0.0.1:1", "-t", "soon")
	assert.ErrorContains(t, err, "invalid timeout")

	_, _, err = executeCommand("get", "http://127.0.0.1:1", "--response-type", "xml")
	assert.ErrorIs(t, err, http.ErrUnknownResponseType)
}

func TestGetCmd_ObserveResponse(t *testing.T) {
	server := echoServer(t)

	stdout, _, err := executeCommand("get", server.URL, "--observe", "response", "-v", "--no-color")
	require.NoError(t, err)

	assert.Contains(t, stdout, "▶ REQUEST: GET "+server.URL)
	assert.Contains(t, stdout, "◀ RESPONSE: 200 OK")
	assert.Contains(t, stdout, "Protocol: HTTP/1.1")
	assert.Contains(t, stdout, `"method": "GET"`)
}

func TestGetCmd_HTTPError(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusNotFound)
		w.Write([]byte(`{"error":"missing"}`))
	}))
	defer server.Close()

	stdout, _, err := executeCommand("get", server.URL, "--no-color")
	require.Error(t, err)

	var reported errReported
	assert.True(t, errors.As(err, &reported))
	assert.True(t, http.IsHTTPError(err))
	assert.Contains(t, stdout, "✗ HTTP ERROR: 404 Not Found")
	assert.Contains(t, stdout, `"error": "missing"`)
}

func TestPostCmd_SuccessPolicy(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusCreated)
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	_, _, err := executeCommand("post", server.URL, "-j", `{}`)
	assert.True(t, http.IsHTTPError(err), "201 is an error under the default policy")

	_, _, err = executeCommand("post", server.URL, "-j", `{}`, "--2xx")
	assert.NoError(t, err)
}

func TestGetCmd_Timeout(t *testing.T) {
	server := httptest.NewServer(testserver.Handler())
	defer server.Close()

	stdout, stderr, err := executeCommand("get", server.URL+"/delay/1000", "-t", "20", "--no-color")
	require.Error(t, err)
	assert.True(t, http.IsTimeout(err))
	assert.Contains(t, stdout, "✗ TIMEOUT: request timed out after 20ms")
	assert.Contains(t, stderr, "request timed out")
}

func TestGetCmd_NetworkErrorJSON(t *testing.T) {
	server := httptest.NewServer(nethttp.NotFoundHandler())
	url := server.URL
	server.Close()

	stdout, _, err := executeCommand("get", url, "-o", "json", "--log-level", "error")
	require.Error(t, err)

	var out map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "networkError", out["error"]["kind"])
}

func TestGetCmd_ExtractAndSchema(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Write([]byte(`{"user":{"name":"Ann","age":"old"}}`))
	}))
	defer server.Close()

	stdout, _, err := executeCommand("get", server.URL, "-x", "$.user.name", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, stdout, "$.user.name = Ann")

	_, _, err = executeCommand("get", server.URL, "-x", "$.user.missing", "--no-color")
	assert.Error(t, err)

	schema := filepath.Join(t.TempDir(), "user.schema.json")
	require.NoError(t, os.WriteFile(schema, []byte(`{
		"type": "object",
		"properties": {"user": {"type": "object", "properties": {"age": {"type": "integer"}}}}
	}`), 0o644))

	stdout, _, err = executeCommand("get", server.URL, "--schema", schema, "--no-color")
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ Schema validation failed:")
	assert.Contains(t, stdout, "/user/age")
}

func TestParseQueryFlags(t *testing.T) {
	params, err := parseQueryFlags([]string{"a=1", "b=x=y", "a=2", "a=3", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a":     []any{"1", "2", "3"},
		"b":     "x=y",
		"empty": "",
	}, params)

	_, err = parseQueryFlags([]string{"=v"})
	assert.Error(t, err)
}
