// Package server exposes the facet daemon's HTTP API: session lifecycle,
// frame ingestion (multipart and websocket), synchronized list endpoints
// with checksum change detection, and dashboard settings.
package server
