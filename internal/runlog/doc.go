// Package runlog persists per-item outcomes for audit.
//
// Two artifacts:
//   - download_log.csv, written at the bucket root after every run, one
//     row per manifest item in manifest order.
//   - an optional SQLite history database accumulating runs across
//     invocations, browsable via the history subcommand.
package runlog
