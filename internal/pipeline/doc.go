// Package pipeline orchestrates a full manifest run.
//
// Run loads the manifest, downloads each row through the fetcher,
// aggregates results in manifest order, writes download_log.csv to the
// bucket root, and prints the summary and per-region file listing.
//
// Rows run sequentially by default. With workers > 1 a bounded pool is
// used instead; results are still collected by manifest position so the
// log order is stable, and filename allocation stays serialized in the
// fetcher, so collision handling is race-free either way.
package pipeline
