// Package client is the HTTP client the facet CLI uses to talk to a
// running daemon.
package client
