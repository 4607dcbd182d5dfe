package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Options configures the HTTP client.
type Options struct {
	// Timeout bounds connecting, waiting for response headers, and the
	// idle gap between body reads. It does not cap the total transfer,
	// so a large file that keeps moving is never cut off.
	// Default: 120s
	Timeout time.Duration

	// Attempts is the total number of attempts per request.
	// Default: 3
	Attempts int

	// Backoff is the initial backoff duration between attempts.
	// Default: 1s
	Backoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	// Default: 30s
	MaxBackoff time.Duration

	// Headers overrides the default outbound header set.
	Headers map[string]string
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:    120 * time.Second,
		Attempts:   3,
		Backoff:    time.Second,
		MaxBackoff: 30 * time.Second,
	}
}

// DefaultHeaders is the browser-like header set sent with every request.
// Some manifest source servers reject clients that don't look like a
// browser. Accept-Encoding is left to the transport so that gzip
// responses are decoded transparently.
var DefaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
	"Connection":      "keep-alive",
}

// StatusError reports an HTTP error response (status >= 400). Protocol
// errors are terminal: the server actively rejected the request, so the
// client never retries them.
type StatusError struct {
	Code   int
	Reason string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Reason)
}

// Client is an HTTP client for polite batch downloads: transport
// failures are retried with exponential backoff, error responses are not.
type Client struct {
	client *http.Client
	opts   Options
}

// NewClient creates a new HTTP client with the given options.
func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}

	// No http.Client.Timeout: that caps the entire transfer including
	// the body, and a healthy multi-gigabyte download can stream for
	// longer than any sensible request timeout. Each phase is bounded
	// separately instead; stalls mid-body are caught by idleBody.
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			// Redirects are followed by default; manifest URLs
			// frequently bounce through CDN redirects.
		},
		opts: opts,
	}
}

// Get fetches url, following redirects and sending the browser-like
// header set. The response body is the caller's to close. Transport
// errors are retried up to the attempt budget; an error status response
// returns *StatusError immediately.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	// Malformed URLs are terminal.
	if _, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var lastErr error

	for attempt := 0; attempt < c.opts.Attempts; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}

		resp, err := c.do(ctx, url)
		if err == nil {
			return resp, nil
		}

		var se *StatusError
		if errors.As(err, &se) {
			return nil, err
		}
		lastErr = err
	}

	if c.opts.Attempts == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("get failed after %d attempts: %w", c.opts.Attempts, lastErr)
}

// do runs a single attempt. The request gets its own cancelable context
// so the returned body can abort the connection when reads stall.
func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	reqCtx, cancel := context.WithCancel(ctx)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}

	headers := c.opts.Headers
	if headers == nil {
		headers = DefaultHeaders
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		cancel()
		return nil, &StatusError{
			Code:   resp.StatusCode,
			Reason: statusReason(resp),
		}
	}

	resp.Body = newIdleBody(resp.Body, c.opts.Timeout, cancel)
	return resp, nil
}

// backoff waits for an exponentially increasing duration: base, 2x base,
// 4x base, capped at MaxBackoff.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	backoff := c.opts.Backoff * time.Duration(1<<uint(attempt-1))
	if backoff > c.opts.MaxBackoff {
		backoff = c.opts.MaxBackoff
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(backoff):
		return nil
	}
}

// idleBody cancels its request when a body read makes no progress for
// the idle duration. A stalled connection fails promptly; a slow but
// steady transfer runs for as long as it needs.
type idleBody struct {
	rc      io.ReadCloser
	idle    time.Duration
	timer   *time.Timer
	cancel  context.CancelFunc
	stalled atomic.Bool
}

func newIdleBody(rc io.ReadCloser, idle time.Duration, cancel context.CancelFunc) *idleBody {
	b := &idleBody{rc: rc, idle: idle, cancel: cancel}
	// Armed from creation: the first read must also happen within the
	// idle window.
	b.timer = time.AfterFunc(idle, func() {
		b.stalled.Store(true)
		cancel()
	})
	return b
}

func (b *idleBody) Read(p []byte) (int, error) {
	b.timer.Reset(b.idle)
	n, err := b.rc.Read(p)
	b.timer.Stop()
	if err != nil && err != io.EOF && b.stalled.Load() {
		err = fmt.Errorf("no body data for %v: %w", b.idle, err)
	}
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.Stop()
	b.cancel()
	return b.rc.Close()
}

// statusReason extracts the reason phrase from a response status line.
func statusReason(resp *http.Response) string {
	reason := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
