// Package config loads, normalizes, and validates mgdl configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MGDL_MANGA_DIR. The Config type centralizes every knob the CLI and the mirror
// planner need, so the library root, the catalog location, and the external
// fetch tool are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
