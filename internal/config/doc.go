// Package config loads, normalizes, and validates facet configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FACET_API_TOKEN and FACET_DETECTOR_URL. A .env file in the working
// directory is loaded before the TOML file so secrets can stay out of it.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
