// Package fname derives safe filenames for downloaded files.
//
// It covers two concerns:
//   - Sanitize turns free-text labels (hospital names, regions) into
//     lowercase, length-bounded path segments.
//   - ExtFromRequest / ExtFromResponse pick a file extension from the URL
//     path, the manifest's declared type, and finally the response headers.
//
// All functions are pure and total: unrecognized inputs fall through to a
// documented default instead of failing.
package fname
