// Package fetcher downloads single manifest rows into the output bucket.
//
// Each Fetch call runs the retry state machine for one row: attempt the
// transfer, retry transport failures with exponential backoff while
// budget remains, and stop immediately on an HTTP error response. On
// success it resolves the final extension from the response headers,
// allocates a collision-free region-scoped key, and streams the body in
// fixed-size chunks.
//
// Expected failure modes never escape as errors; they are recorded in
// the returned Result so the pipeline can continue with the next row.
package fetcher
