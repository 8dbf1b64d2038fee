// Package services holds the shared error taxonomy for facet's operational
// surfaces and the clients for external collaborators (the detection
// service). Handlers classify errors through the sentinel markers defined
// here instead of matching message strings.
package services
