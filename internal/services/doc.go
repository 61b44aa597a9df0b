// Package services defines shared utilities consumed by the export pipeline and
// its AWS integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, split names, and manifest entry
//     positions for logging.
//   - Structured error markers plus the Wrap helper so every abort carries the
//     split and offending entry or source reference.
//
// Subpackages hold the thin SDK adapters for the labeling service and object
// storage.
package services
