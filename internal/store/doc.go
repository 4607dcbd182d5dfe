// Package store opens and writes the output bucket.
//
// Downloads land in a gocloud.dev blob bucket under region-scoped keys
// (region/filename). A bare path maps to a local directory via fileblob,
// which produces the plain output_dir/region/file layout on disk; URLs
// with a scheme are dispatched to whatever drivers are registered, and
// tests use mem://.
package store
