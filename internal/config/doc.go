// Package config loads, normalizes, and validates Curator configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a local .env file when present, and
// honours environment fallbacks such as CURATOR_DATA_DIR. The Config type
// centralizes every knob the server and CLI need so the datastore location,
// pipeline concurrency and publishing timeouts are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
