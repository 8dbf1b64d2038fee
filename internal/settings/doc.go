// Package settings stores the dashboard settings document as a single
// JSON file with atomic writes.
package settings
