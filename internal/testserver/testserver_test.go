package testserver

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/fetchx/http"
)

func TestHandler(t *testing.T) {
	server := httptest.NewServer(Handler())
	defer server.Close()

	client := http.NewClient()
	ctx := context.Background()

	t.Run("echo", func(t *testing.T) {
		resp, err := client.Post(ctx, server.URL+"/echo", map[string]int{"a": 1},
			http.WithParam("q", "x"), http.WithHeader("X-Test", "yes"))
		require.NoError(t, err)

		var echo Echo
		require.NoError(t, resp.Decode(&echo))
		assert.Equal(t, "POST", echo.Method)
		assert.Equal(t, "/echo", echo.Path)
		assert.Equal(t, []string{"x"}, echo.Query["q"])
		assert.Equal(t, "yes", echo.Headers["X-Test"])
		assert.JSONEq(t, `{"a":1}`, echo.Body)
	})

	t.Run("status", func(t *testing.T) {
		_, err := client.Get(ctx, server.URL+"/status/418")
		require.Error(t, err)
		e, ok := http.AsError(err)
		require.True(t, ok)
		assert.Equal(t, http.KindHTTPErrorResponse, e.Kind)
		assert.Equal(t, 418, e.Status())
		assert.Equal(t, map[string]any{"status": float64(418)}, e.Body())

		_, err = client.Get(ctx, server.URL+"/status/abc", http.WithResponseType(http.ResponseTypeText))
		assert.True(t, http.IsHTTPError(err))
	})

	t.Run("delay", func(t *testing.T) {
		_, err := client.Get(ctx, server.URL+"/delay/500", http.WithTimeout(20*time.Millisecond))
		assert.True(t, http.IsTimeout(err))

		resp, err := client.Get(ctx, server.URL+"/delay/1")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"delayed": float64(1)}, resp.Body)
	})

	t.Run("redirect", func(t *testing.T) {
		resp, err := client.Get(ctx, server.URL+"/redirect", http.WithObserve(http.ObserveResponse))
		require.NoError(t, err)
		assert.True(t, resp.Redirected)
		assert.Equal(t, server.URL+"/echo", resp.URL)
	})

	t.Run("text and bytes", func(t *testing.T) {
		resp, err := client.Get(ctx, server.URL+"/text", http.WithResponseType(http.ResponseTypeText))
		require.NoError(t, err)
		assert.Equal(t, "hello from fetchx", resp.Body)

		resp, err = client.Get(ctx, server.URL+"/bytes/16", http.WithResponseType(http.ResponseTypeBlob))
		require.NoError(t, err)
		blob, ok := resp.Body.(http.Blob)
		require.True(t, ok)
		assert.Equal(t, 16, blob.Size())
		assert.Equal(t, "application/octet-stream", blob.Type)
	})

	t.Run("health", func(t *testing.T) {
		res, err := nethttp.Get(server.URL + "/health")
		require.NoError(t, err)
		defer res.Body.Close()
		assert.Equal(t, nethttp.StatusOK, res.StatusCode)
	})
}
