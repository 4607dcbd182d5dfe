package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gocloud.dev/blob"

	"mrfetch/internal/fname"
	mrfhttp "mrfetch/internal/http"
	"mrfetch/internal/manifest"
	"mrfetch/internal/store"
)

// Result is the outcome of one manifest row, produced exactly once per
// row and never mutated afterward.
type Result struct {
	Name    string
	URL     string
	Success bool
	Key     string // bucket key (region/filename), set only on success
	Size    int64  // bytes written, 0 if nothing was written
	Error   string // set only on failure
}

// Fetcher downloads single manifest rows into a bucket.
type Fetcher struct {
	client    *mrfhttp.Client
	bucket    *blob.Bucket
	namer     *namer
	chunkSize int
	attempts  int
	backoff   time.Duration
}

// Options configures a Fetcher.
type Options struct {
	// ChunkSize is the streaming buffer size in bytes. Default: 8192.
	ChunkSize int

	// HTTPOptions configures the HTTP client, including the retry
	// budget and backoff.
	HTTPOptions mrfhttp.Options
}

// New creates a Fetcher writing into bucket.
func New(bucket *blob.Bucket, opts Options) *Fetcher {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 8192
	}
	httpOpts := opts.HTTPOptions
	if httpOpts.Attempts <= 0 {
		httpOpts.Attempts = mrfhttp.DefaultOptions().Attempts
	}
	if httpOpts.Backoff <= 0 {
		httpOpts.Backoff = mrfhttp.DefaultOptions().Backoff
	}

	return &Fetcher{
		// Retries live here, not in the client: whether a failure is
		// retryable depends on its classification below.
		client:    mrfhttp.NewClient(withoutRetries(httpOpts)),
		bucket:    bucket,
		namer:     newNamer(bucket),
		chunkSize: opts.ChunkSize,
		attempts:  httpOpts.Attempts,
		backoff:   httpOpts.Backoff,
	}
}

// Fetch downloads one manifest row. Expected failure modes (timeouts,
// connection errors, HTTP error responses, write errors) are captured in
// the Result rather than returned; transport failures are retried with
// exponential backoff up to the attempt budget, everything else is
// terminal for the row.
func (f *Fetcher) Fetch(ctx context.Context, row manifest.Row) Result {
	result := Result{Name: row.Name, URL: row.URL}

	region := fname.Sanitize(row.Region)
	base := fname.Sanitize(row.Name)
	expectedExt := fname.ExtFromRequest(row.URL, row.DeclaredType)

	for attempt := 0; attempt < f.attempts; attempt++ {
		resp, err := f.client.Get(ctx, row.URL)
		if err != nil {
			var se *mrfhttp.StatusError
			switch {
			case errors.As(err, &se):
				// The server actively rejected this row; retrying
				// won't change its mind.
				result.Error = se.Error()
				return result
			case ctx.Err() != nil:
				// Caller cancellation, not a flaky network. Client
				// timeouts also wrap context.DeadlineExceeded, so
				// the run context is what decides.
				result.Error = ctx.Err().Error()
				return result
			default:
				result.Error = fmt.Sprintf("%v (attempt %d/%d)", err, attempt+1, f.attempts)
				if attempt < f.attempts-1 {
					if werr := f.wait(ctx, attempt); werr != nil {
						result.Error = werr.Error()
						return result
					}
				}
				continue
			}
		}

		ext := fname.ExtFromResponse(resp.Header, expectedExt)
		key, err := f.namer.Allocate(ctx, region, base, ext)
		if err != nil {
			resp.Body.Close()
			result.Error = err.Error()
			return result
		}

		size, err := store.Write(ctx, f.bucket, key, resp.Body, f.chunkSize)
		resp.Body.Close()
		if err != nil {
			result.Error = err.Error()
			return result
		}

		result.Success = true
		result.Key = key
		result.Size = size
		return result
	}

	return result
}

// wait sleeps for 2^attempt times the backoff base, honoring ctx.
func (f *Fetcher) wait(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.backoff * time.Duration(1<<uint(attempt))):
		return nil
	}
}

// withoutRetries returns opts with the client's own retry loop disabled.
func withoutRetries(opts mrfhttp.Options) mrfhttp.Options {
	opts.Attempts = 1
	return opts
}
