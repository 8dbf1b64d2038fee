// Package detector implements the HTTP client for the external AI
// detection service. The service owns the defect verdict; facet only
// validates the response shape at this boundary and backfills documented
// defaults for optional fields.
package detector
