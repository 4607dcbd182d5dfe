// Package http provides the HTTP client used for manifest downloads.
//
// This package handles:
//   - A fixed browser-like outbound header set (some source servers
//     reject non-browser clients)
//   - Redirect following, with timeouts on connecting, response
//     headers, and idle body reads (never on the total transfer)
//   - Retry with exponential backoff for transport failures
//   - Terminal StatusError for HTTP error responses (never retried)
//
// # Usage
//
//	client := http.NewClient(http.Options{
//	    Timeout:  120 * time.Second,
//	    Attempts: 3,
//	})
//
//	resp, err := client.Get(ctx, url)
//	var se *http.StatusError
//	if errors.As(err, &se) {
//	    // server rejected the request; don't retry
//	}
package http
