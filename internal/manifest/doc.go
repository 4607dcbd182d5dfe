// Package manifest parses the CSV manifest enumerating files to download.
//
// The manifest has one row per item with the columns hospital_name,
// mrf_download_url, file_type and region, all mandatory. A malformed row
// aborts the whole load rather than being skipped: a partial run against
// a broken manifest is treated as a configuration error, not a per-row
// failure.
package manifest
