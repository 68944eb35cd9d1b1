// Package http provides a small HTTP client façade that normalizes how
// requests are built and how responses and failures come back.
//
// Every call runs the same pipeline:
//   - request options are merged over documented defaults
//   - params are serialized into the query string (bracket notation for nesting)
//   - the body is encoded according to the declared content type
//   - a Content-Type header is derived from the encoding
//   - the round trip races a timer; the loser is cancelled
//   - the body is parsed according to the declared response type
//   - the outcome is classified as success or one of three error kinds
//
// Basic Usage:
//
//	client := http.NewClient()
//
//	resp, err := client.Get(ctx, "https://api.example.com/users",
//	    http.WithParams(map[string]any{"filter": map[string]any{"active": true}}),
//	    http.WithTimeout(5*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Body)
//
// By default only the parsed body is returned. Ask for the whole response
// with WithObserve(ObserveResponse):
//
//	resp, err := client.Post(ctx, "https://api.example.com/users", user,
//	    http.WithObserve(http.ObserveResponse))
//	fmt.Println(resp.Status, resp.Headers.Get("Location"), resp.Body)
//
// Errors:
//
// Mistakes in the call itself (an unknown content type, a multipart call
// without a MultipartForm) are returned before anything is sent. Every
// failure after that is an *Error tagged with a Kind:
//
//	_, err := client.Get(ctx, url)
//	if e, ok := http.AsError(err); ok {
//	    switch e.Kind {
//	    case http.KindTimeout:
//	    case http.KindHTTPErrorResponse:
//	        fmt.Println(e.Status(), e.Body())
//	    case http.KindNetworkError:
//	        fmt.Println(e.Err)
//	    }
//	}
//
// Only status 200 counts as success unless the client is built with
// WithSuccessPolicy(Status2xx).
//
// Thread Safety:
//
// Client is safe for concurrent use. Calls share no state and may complete
// in any order.
package http
