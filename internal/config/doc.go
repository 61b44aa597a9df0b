// Package config loads, normalizes, and validates exporter configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AWS_REGION, AWS_PROFILE, and REKOGEXPORT_PROJECT. Struct-level rules are
// declared as validator tags on the section types; cross-field rules live in
// validate.go.
//
// Always obtain settings through this package so downstream code receives
// expanded paths, canonical log formats, and clear validation errors.
package config
