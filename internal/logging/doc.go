// Package logging builds the slog loggers used across facet and provides
// shared attribute helpers so field names stay consistent between the
// daemon, the HTTP API, and the CLI.
package logging
