// Package api defines the JSON payloads shared between the facet daemon's
// HTTP surface and its clients, plus the converters from storage models.
package api
