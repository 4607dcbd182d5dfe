// Package config defines configuration structures for the mrfetch CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (MRFETCH_ prefix)
//   - YAML configuration file
//
// Flags win over environment variables, which win over the file, which
// wins over defaults. Durations are written as Go duration strings
// ("120s", "500ms") and byte sizes as human-readable strings ("8KB").
package config
