// Package daemon wires the facet runtime together: the inspection
// store, the live session machine, the HTTP API server, and the
// optional camera monitor. It enforces single-instance execution with a
// lock file.
package daemon
